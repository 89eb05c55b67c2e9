// Package models tracks all api models for request and responses
package models

import "github.com/aouyang1/tvsettings/settings"

type IntervalRequest struct {
	IntervalSeconds int `json:"interval_seconds"`
}

type PhotoURLRequest struct {
	URL string `json:"url"`
}

type VideoRequest struct {
	URL string `json:"url"`
}

type BGMRequest struct {
	URL string `json:"url"`
}

type PhotoResponse struct {
	Photo   settings.Photo `json:"photo"`
	Message string         `json:"message"`
}

type VideoResponse struct {
	Video   settings.YoutubeVideo `json:"video"`
	Message string                `json:"message"`
}

type UploadResponse struct {
	Uploaded int    `json:"uploaded"`
	Message  string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TVURLResponse struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
