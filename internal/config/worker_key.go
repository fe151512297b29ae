package config

type WorkerKeyStruct struct {
	TabSwitchQueue     string
	NotificationsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	TabSwitchQueue:     "tab_switch_queue",
	NotificationsQueue: "notifications_queue",
}
