package api

import "errors"

var (
	// ErrFeedRequired indicates that the server was built without a feed.
	ErrFeedRequired = errors.New("price feed is required")
	// ErrEngineRequired indicates that the server was built without a pricing engine.
	ErrEngineRequired = errors.New("pricing engine is required")
	// ErrSubscriberRequired indicates that the WebSocket server has no feed to subscribe to.
	ErrSubscriberRequired = errors.New("quote subscriber is required")
	// ErrInvalidQuery indicates a malformed query parameter.
	ErrInvalidQuery = errors.New("invalid query parameter")
	// ErrInvalidBody indicates a malformed request body.
	ErrInvalidBody = errors.New("invalid request body")
)
