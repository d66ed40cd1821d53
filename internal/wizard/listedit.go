package wizard

import (
	"encoding/json"
	"fmt"

	"pool-wizard/internal/common/errors"
)

// ListKinds are the row lists addressable by name.
var ListKinds = []ListKind{ListPriorNames, ListCoOwners, ListExistingLoans, ListDocuments, ListLiabilities}

func ParseListKind(raw string) (ListKind, error) {
	for _, k := range ListKinds {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", errors.NewInvalidFieldError("list", fmt.Sprintf("unknown list %q", raw))
}

func decodeRow[T any](raw json.RawMessage) (T, error) {
	var row T
	if err := json.Unmarshal(raw, &row); err != nil {
		return row, errors.NewInvalidRequestError(fmt.Sprintf("invalid row: %v", err))
	}
	return row, nil
}

// AddListItem decodes raw as a row of kind and appends it.
func (s *State) AddListItem(kind ListKind, raw json.RawMessage) error {
	switch kind {
	case ListPriorNames:
		row, err := decodeRow[PriorName](raw)
		if err != nil {
			return err
		}
		return s.AddPriorName(row)
	case ListCoOwners:
		row, err := decodeRow[CoOwner](raw)
		if err != nil {
			return err
		}
		return s.AddCoOwner(row)
	case ListExistingLoans:
		row, err := decodeRow[ExistingLoan](raw)
		if err != nil {
			return err
		}
		return s.AddExistingLoan(row)
	case ListDocuments:
		row, err := decodeRow[Document](raw)
		if err != nil {
			return err
		}
		return s.AddDocument(row)
	case ListLiabilities:
		row, err := decodeRow[Liability](raw)
		if err != nil {
			return err
		}
		return s.AddLiability(row)
	}
	return errors.NewInvalidFieldError("list", fmt.Sprintf("unknown list %q", kind))
}

// UpdateListItem replaces the row at index with raw.
func (s *State) UpdateListItem(kind ListKind, index int, raw json.RawMessage) error {
	switch kind {
	case ListPriorNames:
		row, err := decodeRow[PriorName](raw)
		if err != nil {
			return err
		}
		return s.UpdatePriorName(index, row)
	case ListCoOwners:
		row, err := decodeRow[CoOwner](raw)
		if err != nil {
			return err
		}
		return s.UpdateCoOwner(index, row)
	case ListExistingLoans:
		row, err := decodeRow[ExistingLoan](raw)
		if err != nil {
			return err
		}
		return s.UpdateExistingLoan(index, row)
	case ListDocuments:
		row, err := decodeRow[Document](raw)
		if err != nil {
			return err
		}
		return s.UpdateDocument(index, row)
	case ListLiabilities:
		row, err := decodeRow[Liability](raw)
		if err != nil {
			return err
		}
		return s.UpdateLiability(index, row)
	}
	return errors.NewInvalidFieldError("list", fmt.Sprintf("unknown list %q", kind))
}

func (s *State) RemoveListItem(kind ListKind, index int) error {
	switch kind {
	case ListPriorNames:
		return s.RemovePriorName(index)
	case ListCoOwners:
		return s.RemoveCoOwner(index)
	case ListExistingLoans:
		return s.RemoveExistingLoan(index)
	case ListDocuments:
		return s.RemoveDocument(index)
	case ListLiabilities:
		return s.RemoveLiability(index)
	}
	return errors.NewInvalidFieldError("list", fmt.Sprintf("unknown list %q", kind))
}
