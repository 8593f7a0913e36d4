package api

import "time"

// StatusSuccess is the status of every successful envelope
const StatusSuccess = "success"

// Response is the envelope of successful JSON responses
type Response struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Count    *int        `json:"count,omitempty"`
}

// Warning is a non-fatal notice about the applied selection
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AppliedFilter echoes the selection actually applied after fallbacks
type AppliedFilter struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Weather []int  `json:"weather"`
	Seasons []int  `json:"season"`
}

// ChartsData is the payload of the charts endpoint
type ChartsData struct {
	Filter      AppliedFilter `json:"filter"`
	Charts      interface{}   `json:"charts"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Success wraps data in the success envelope
func Success(data interface{}) Response {
	return Response{Status: StatusSuccess, Data: data}
}

// SuccessWithCount wraps a list in the success envelope with its length
func SuccessWithCount(data interface{}, count int) Response {
	return Response{Status: StatusSuccess, Data: data, Count: &count}
}
