// Package view holds the templ components served over plain HTTP.
package view

//go:generate templ generate

// StatusMessage is the liveness body
const StatusMessage = "API is running successfully"
