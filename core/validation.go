package core

import "fmt"

// MaxQueryLength is the inbound text ceiling. Longer messages are rejected
// with ErrQueryTooLong before any extraction work.
const MaxQueryLength = 2048

// ValidateQueryText checks inbound text against the validation taxonomy.
func ValidateQueryText(text string) error {
	if text == "" {
		return ErrEmptyQuery
	}
	if len(text) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// Validate checks that a member record is well formed.
func (m *MemberRecord) Validate() error {
	if m.Id == 0 {
		return fmt.Errorf("%w: missing id", ErrInvalidMemberRecord)
	}
	if m.TenantId == "" {
		return fmt.Errorf("%w: %v", ErrInvalidMemberRecord, ErrEmptyTenant)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidMemberRecord)
	}
	if m.Type < MemberTypeGeneric || m.Type > MemberTypeResident {
		return fmt.Errorf("%w: unknown member type %d", ErrInvalidMemberRecord, m.Type)
	}
	return nil
}

// Clamp bounds the extraction confidence to [0,1] in place.
func (e *Extraction) Clamp() {
	if e.Confidence < 0 {
		e.Confidence = 0
	}
	if e.Confidence > 1 {
		e.Confidence = 1
	}
}
