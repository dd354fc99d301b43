package driven

import "context"

// Volume is a file store rooted at a base directory. Paths are relative
// to the root and use forward slashes.
type Volume interface {
	// ListFiles returns the files directly under dir, sorted by name.
	ListFiles(dir string) ([]string, error)

	// ReadString returns the content of a file.
	ReadString(path string) (string, error)

	// WriteString replaces the content of a file, creating parents.
	WriteString(path, content string) error

	// ReadJSON decodes a JSON file into v.
	ReadJSON(path string, v any) error

	// WriteJSON encodes v as JSON into a file.
	WriteJSON(path string, v any) error

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(path string) error

	// CreateListener watches dir for changes until ctx ends or the
	// listener is closed.
	CreateListener(ctx context.Context, dir string) (VolumeListener, error)
}

// VolumeEventType classifies a change.
type VolumeEventType string

// Volume event types.
const (
	VolumeEventCreated VolumeEventType = "created"
	VolumeEventChanged VolumeEventType = "changed"
	VolumeEventDeleted VolumeEventType = "deleted"
)

// VolumeEvent reports one change under a watched directory.
type VolumeEvent struct {
	Type VolumeEventType
	Path string
}

// VolumeListener delivers change events.
type VolumeListener interface {
	// Events returns the event channel. It is closed when the listener stops.
	Events() <-chan VolumeEvent

	// Close stops the listener.
	Close() error
}
