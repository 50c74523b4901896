// Package event turns a push notification into the Trigger a dispatch runs for.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEvent is returned when the push notification lacks the fields
// needed to identify the repository, branch and commit.
var ErrMalformedEvent = errors.New("malformed event")

// Notification is the push notification envelope delivered by the repository
// service. Only the first record and its first reference are consulted.
type Notification struct {
	Records []Record `json:"Records"`
}

// Record is one entry of a Notification.
type Record struct {
	EventSourceARN string        `json:"eventSourceARN"`
	CodeCommit     *RecordDetail `json:"codecommit"`
}

// RecordDetail holds the reference updates of a record.
type RecordDetail struct {
	References []Reference `json:"references"`
}

// Reference is one reference update: the resulting commit and the ref name.
type Reference struct {
	Commit string `json:"commit"`
	Ref    string `json:"ref"`
}

// Trigger is the interpreted form of a push: which commit landed on which
// branch of which repository.
type Trigger struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	Commit     string `json:"commit"`
}

// Parse decodes a raw notification and interprets it.
func Parse(data []byte) (Trigger, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Trigger{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return Interpret(&n)
}

// Interpret extracts the Trigger from the first reference update of the first
// record. Additional records and references are ignored.
func Interpret(n *Notification) (Trigger, error) {
	if n == nil || len(n.Records) == 0 {
		return Trigger{}, fmt.Errorf("%w: no records", ErrMalformedEvent)
	}
	rec := n.Records[0]
	if rec.CodeCommit == nil || len(rec.CodeCommit.References) == 0 {
		return Trigger{}, fmt.Errorf("%w: no references", ErrMalformedEvent)
	}
	ref := rec.CodeCommit.References[0]
	if ref.Commit == "" {
		return Trigger{}, fmt.Errorf("%w: reference has no commit", ErrMalformedEvent)
	}
	branch := BranchName(ref.Ref)
	if branch == "" {
		return Trigger{}, fmt.Errorf("%w: reference has no ref name", ErrMalformedEvent)
	}
	repo := RepositoryName(rec.EventSourceARN)
	if repo == "" {
		return Trigger{}, fmt.Errorf("%w: missing event source", ErrMalformedEvent)
	}
	return Trigger{Repository: repo, Branch: branch, Commit: ref.Commit}, nil
}

// BranchName returns the last path segment of a ref ("refs/heads/main" -> "main").
func BranchName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// RepositoryName returns the resource part of a source identifier of the form
// "arn:partition:service:region:account:repository". Identifiers without any
// ':' are taken to be the repository name itself.
func RepositoryName(source string) string {
	if !strings.Contains(source, ":") {
		return source
	}
	parts := strings.Split(source, ":")
	if len(parts) < 6 {
		return ""
	}
	return parts[5]
}
