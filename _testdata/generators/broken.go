package broken

func ID() string { return "broken"
