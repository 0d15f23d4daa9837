package events

const (
	TopicMacIntent = "fdbd:events:mac:intent"
	TopicLinkState = "fdbd:events:link:state"
	TopicFdbEntry  = "fdbd:events:fdb:entry"
)
