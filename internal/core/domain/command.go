package domain

import (
	"encoding/base64"
	"fmt"
	"maps"
)

// CommandResponse is the reply of a driver command.
type CommandResponse struct {
	StatusCode  int
	ContentType string
	Parameters  map[string]string
	Content     []byte
}

// CommandJSONResponse is the transport form of a CommandResponse with the
// content base64 encoded.
type CommandJSONResponse struct {
	StatusCode  int               `json:"statusCode"`
	ContentType string            `json:"contentType,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Content     string            `json:"content,omitempty"`
}

// NewCommandJSONResponse converts a CommandResponse into its JSON form.
func NewCommandJSONResponse(r CommandResponse) CommandJSONResponse {
	j := CommandJSONResponse{
		StatusCode:  r.StatusCode,
		ContentType: r.ContentType,
		Parameters:  maps.Clone(r.Parameters),
	}
	if r.Content != nil {
		j.Content = base64.StdEncoding.EncodeToString(r.Content)
	}
	return j
}

// ToResponse converts back to a CommandResponse.
func (j CommandJSONResponse) ToResponse() (CommandResponse, error) {
	r := CommandResponse{
		StatusCode:  j.StatusCode,
		ContentType: j.ContentType,
		Parameters:  maps.Clone(j.Parameters),
	}
	if j.Content != "" {
		content, err := base64.StdEncoding.DecodeString(j.Content)
		if err != nil {
			return CommandResponse{}, fmt.Errorf("decoding command content: %w", err)
		}
		r.Content = content
	}
	return r, nil
}
