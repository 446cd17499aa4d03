// Package dto defines data transfer objects for the Alpha Vantage API responses.
package dto

// TimeSeriesDailyResponse represents the JSON response of function=TIME_SERIES_DAILY.
// Series is nil when the "Time Series (Daily)" field is absent.
type TimeSeriesDailyResponse struct {
	MetaData     map[string]string            `json:"Meta Data"`
	Series       map[string]map[string]string `json:"Time Series (Daily)"`
	Note         string                       `json:"Note,omitempty"`
	Information  string                       `json:"Information,omitempty"`
	ErrorMessage string                       `json:"Error Message,omitempty"`
}

// Reason returns the API's explanation for a missing series, if any.
func (r TimeSeriesDailyResponse) Reason() string {
	switch {
	case r.ErrorMessage != "":
		return r.ErrorMessage
	case r.Note != "":
		return r.Note
	default:
		return r.Information
	}
}
