package store

import "context"

// Record keys, kept identical to the browser local storage keys so exported
// state stays recognizable.
const (
	ConnectionKey = "linkedin-connection"
	ProfileKey    = "linkedin-profile"
)

// CredentialStore persists the connection and the last fetched profile on the
// user's machine.
//
// Values are stored in plain text. There is no encryption, no expiry and no
// multi-device sync; callers replacing the backing store must keep that in mind.
type CredentialStore interface {
	// Load returns the saved records. A nil result means the record is absent.
	Load(ctx context.Context) (*Credential, *Profile, error)

	// Save overwrites both records.
	Save(ctx context.Context, cred Credential, profile Profile) error

	// SaveProfile overwrites only the profile record.
	SaveProfile(ctx context.Context, profile Profile) error

	// Clear removes both records.
	Clear(ctx context.Context) error

	Close() error
}
