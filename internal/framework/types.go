package framework

// Message is the in-flight representation of one queued work item.
type Message struct {
	ID       string                 // queue job id
	Queue    string                 // queue name
	Data     []byte                 // raw job payload
	Attempts int                    // delivery attempts
	Extra    map[string]interface{} // extension fields
}
