package github

import (
	"encoding/json"
	"time"
)

// Event is a minimal shape for GitHub API events (we only use PushEvent).
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	CreatedAt  time.Time       `json:"created_at"`
	Actor      *Actor          `json:"actor"`
	Repo       *Repo           `json:"repo"`
	RawPayload json.RawMessage `json:"payload"`
}

// Actor holds actor login.
type Actor struct {
	Login string `json:"login"`
}

// Repo holds the repository name. The events API reports it as "owner/repo".
type Repo struct {
	Name string `json:"name"`
}

// PushEventPayload is the payload for type PushEvent.
type PushEventPayload struct {
	Ref    string `json:"ref"`
	Before string `json:"before"`
	Head   string `json:"head"`
}

// commitResponse is the relevant part of GET /repos/{owner}/{repo}/commits/{ref}.
type commitResponse struct {
	SHA     string `json:"sha"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
	Files []changedFile `json:"files"`
}

// compareResponse is the relevant part of GET /repos/{owner}/{repo}/compare/{base}...{head}.
type compareResponse struct {
	Status string        `json:"status"`
	Files  []changedFile `json:"files"`
}

// changedFile is one entry of the files list of a commit or comparison.
type changedFile struct {
	Filename         string `json:"filename"`
	PreviousFilename string `json:"previous_filename"`
	Status           string `json:"status"`
}

// workflowDispatchRequest is the body of a workflow_dispatch trigger.
type workflowDispatchRequest struct {
	Ref string `json:"ref"`
}
