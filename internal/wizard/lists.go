package wizard

import (
	"fmt"

	"pool-wizard/internal/common/errors"
)

// ListKind names an editable row list, as used in API paths.
type ListKind string

const (
	ListPriorNames    ListKind = "prior-names"
	ListCoOwners      ListKind = "co-owners"
	ListExistingLoans ListKind = "existing-loans"
	ListDocuments     ListKind = "documents"
	ListLiabilities   ListKind = "liabilities"
)

// The helpers below never modify their input; every edit yields a new slice.

func cloneSlice[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func appendItem[T any](items []T, item T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	return append(out, item)
}

func replaceItem[T any](items []T, index int, item T) ([]T, error) {
	if index < 0 || index >= len(items) {
		return nil, indexError(index, len(items))
	}
	out := cloneSlice(items)
	out[index] = item
	return out, nil
}

func removeItem[T any](items []T, index int) ([]T, error) {
	if index < 0 || index >= len(items) {
		return nil, indexError(index, len(items))
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...), nil
}

func indexError(index, length int) error {
	return errors.NewInvalidFieldError("index", fmt.Sprintf("index %d out of range [0,%d)", index, length))
}

func (s *State) AddPriorName(item PriorName) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.Personal.PriorNames = appendItem(s.Personal.PriorNames, item)
	return nil
}

func (s *State) UpdatePriorName(index int, item PriorName) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := replaceItem(s.Personal.PriorNames, index, item)
	if err != nil {
		return err
	}
	s.Personal.PriorNames = out
	return nil
}

func (s *State) RemovePriorName(index int) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := removeItem(s.Personal.PriorNames, index)
	if err != nil {
		return err
	}
	s.Personal.PriorNames = out
	return nil
}

func (s *State) AddCoOwner(item CoOwner) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.Property.CoOwners = appendItem(s.Property.CoOwners, item)
	return nil
}

func (s *State) UpdateCoOwner(index int, item CoOwner) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := replaceItem(s.Property.CoOwners, index, item)
	if err != nil {
		return err
	}
	s.Property.CoOwners = out
	return nil
}

func (s *State) RemoveCoOwner(index int) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := removeItem(s.Property.CoOwners, index)
	if err != nil {
		return err
	}
	s.Property.CoOwners = out
	return nil
}

func (s *State) AddExistingLoan(item ExistingLoan) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.Property.ExistingLoans = appendItem(s.Property.ExistingLoans, item)
	return nil
}

func (s *State) UpdateExistingLoan(index int, item ExistingLoan) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := replaceItem(s.Property.ExistingLoans, index, item)
	if err != nil {
		return err
	}
	s.Property.ExistingLoans = out
	return nil
}

func (s *State) RemoveExistingLoan(index int) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := removeItem(s.Property.ExistingLoans, index)
	if err != nil {
		return err
	}
	s.Property.ExistingLoans = out
	return nil
}

func (s *State) AddDocument(item Document) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.Documents = appendItem(s.Documents, item)
	return nil
}

func (s *State) UpdateDocument(index int, item Document) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := replaceItem(s.Documents, index, item)
	if err != nil {
		return err
	}
	s.Documents = out
	return nil
}

func (s *State) RemoveDocument(index int) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := removeItem(s.Documents, index)
	if err != nil {
		return err
	}
	s.Documents = out
	return nil
}

func (s *State) AddLiability(item Liability) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	s.Credit.Liabilities = appendItem(s.Credit.Liabilities, item)
	return nil
}

func (s *State) UpdateLiability(index int, item Liability) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := replaceItem(s.Credit.Liabilities, index, item)
	if err != nil {
		return err
	}
	s.Credit.Liabilities = out
	return nil
}

func (s *State) RemoveLiability(index int) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	out, err := removeItem(s.Credit.Liabilities, index)
	if err != nil {
		return err
	}
	s.Credit.Liabilities = out
	return nil
}
