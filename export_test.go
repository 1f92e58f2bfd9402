package trafficlight

var (
	NewExpectCodeFunc = newExpectCodeFunc
	ResponderHandler  = (*Responder).handler
)
