package models

// Signals emitted on util.Sig() when collections change.
const (
	// sender: *VoiceCollection
	SigCollectionSaved = "collection.saved"
	// sender: owner id (uint), params: deleted ids (string)
	SigCollectionDeleted = "collection.deleted"
)
