package keybif

import "fmt"

const positionBits = 20

const (
	// MaxPosition is the exclusive upper bound of a position inside one data archive
	MaxPosition = 1 << positionBits

	// MaxArchive is the exclusive upper bound of an archive index
	MaxArchive = 1 << (32 - positionBits)

	positionMask = MaxPosition - 1
)

// ResourceID is the packed identifier stored in KEY records: the owning
// archive index in the top 12 bits and the position inside that archive in
// the low 20 bits.
type ResourceID uint32

// NewResourceID packs archive and position, rejecting out-of-range values
func NewResourceID(archive, position uint32) (ResourceID, error) {
	if archive >= MaxArchive {
		return 0, fmt.Errorf("archive index %d out of range (max %d)", archive, MaxArchive-1)
	}
	if position >= MaxPosition {
		return 0, fmt.Errorf("archive position %d out of range (max %d)", position, MaxPosition-1)
	}
	return ResourceID(archive<<positionBits | position), nil
}

// Archive returns the data archive index
func (id ResourceID) Archive() uint32 {
	return uint32(id) >> positionBits
}

// Position returns the resource's slot inside its data archive
func (id ResourceID) Position() uint32 {
	return uint32(id) & positionMask
}

func (id ResourceID) String() string {
	return fmt.Sprintf("%d:%d", id.Archive(), id.Position())
}
