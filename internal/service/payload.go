package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"recipe-manager/internal/domain"
	"recipe-manager/internal/errs"
)

// CreateRecipeInput is a fully validated recipe creation payload.
type CreateRecipeInput struct {
	Title        string
	Description  string
	Instructions string
	Ingredients  []domain.Ingredient
}

// UpdateRecipeInput carries a partial update. Nil fields were absent from the
// payload and leave the stored value untouched. Ingredients, when present,
// replace the stored list wholesale.
type UpdateRecipeInput struct {
	Title          *string
	Description    *string
	Instructions   *string
	Ingredients    []domain.Ingredient
	HasIngredients bool
}

var (
	createRequiredFields   = []string{"title", "description", "instructions", "ingredients"}
	createDisallowedFields = []string{"created_by", "id"}
)

// ParseCreateInput validates a raw creation payload: the identity and
// ownership fields must be absent, all required fields present, and the
// ingredient list well-formed with a name on every entry.
func ParseCreateInput(data []byte) (*CreateRecipeInput, error) {
	fields, err := payloadFields(data)
	if err != nil {
		return nil, err
	}

	for _, field := range createDisallowedFields {
		if _, ok := fields[field]; ok {
			return nil, errs.Validation(fmt.Sprintf("Field %q is not allowed", field))
		}
	}

	var missing []string
	for _, field := range createRequiredFields {
		if _, ok := fields[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, errs.Validation("Missing field(s): " + strings.Join(missing, ", "))
	}

	in := &CreateRecipeInput{}
	if err := unmarshalString(fields["title"], "title", &in.Title); err != nil {
		return nil, err
	}
	if err := unmarshalString(fields["description"], "description", &in.Description); err != nil {
		return nil, err
	}
	if err := unmarshalString(fields["instructions"], "instructions", &in.Instructions); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, errs.Validation("Title must not be empty")
	}

	in.Ingredients, err = ParseIngredients(fields["ingredients"], true)
	if err != nil {
		return nil, err
	}
	return in, nil
}

// ParseUpdateInput validates a partial update payload. Unknown fields
// (including id and created_by) are ignored.
func ParseUpdateInput(data []byte) (*UpdateRecipeInput, error) {
	fields, err := payloadFields(data)
	if err != nil {
		return nil, err
	}

	in := &UpdateRecipeInput{}
	for _, field := range []struct {
		name string
		dst  **string
	}{
		{"title", &in.Title},
		{"description", &in.Description},
		{"instructions", &in.Instructions},
	} {
		raw, ok := fields[field.name]
		if !ok {
			continue
		}
		var value string
		if err := unmarshalString(raw, field.name, &value); err != nil {
			return nil, err
		}
		*field.dst = &value
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, errs.Validation("Title must not be empty")
	}

	if raw, ok := fields["ingredients"]; ok {
		in.Ingredients, err = ParseIngredients(raw, true)
		if err != nil {
			return nil, err
		}
		in.HasIngredients = true
	}
	return in, nil
}

// ParseAppendInput validates an ingredient-append payload. The body must be a
// non-empty JSON object; the "ingredients" key defaults to an empty list when
// absent. Entries need the list-of-objects shape but, unlike create/update,
// no name is required.
func ParseAppendInput(data []byte) ([]domain.Ingredient, error) {
	fields, err := payloadFields(data)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errs.Validation("Invalid JSON format or empty request body")
	}
	raw, ok := fields["ingredients"]
	if !ok {
		return []domain.Ingredient{}, nil
	}
	return ParseIngredients(raw, false)
}

// ParseIngredients decodes a raw JSON ingredient list. It must be a list of
// objects; with requireName set, every entry must carry a non-empty name.
// A quantity left out decodes as "".
func ParseIngredients(raw json.RawMessage, requireName bool) ([]domain.Ingredient, error) {
	if len(raw) == 0 {
		return []domain.Ingredient{}, nil
	}

	listErr := errs.Validation("Ingredients must be a list")
	if requireName {
		listErr = errs.Validation("Ingredients must be a list of dictionaries")
	}

	if strings.TrimSpace(string(raw)) == "null" {
		return nil, listErr
	}

	var items []domain.Ingredient
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, listErr
	}
	if items == nil {
		items = []domain.Ingredient{}
	}

	if requireName {
		for _, item := range items {
			if strings.TrimSpace(item.Name) == "" {
				return nil, errs.Validation(`Each ingredient must be a dictionary with "name" key`)
			}
		}
	}
	return items, nil
}

func payloadFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, errs.Validation("Invalid JSON format or empty request body")
	}
	return fields, nil
}

func unmarshalString(raw json.RawMessage, name string, dst *string) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return errs.Validation(fmt.Sprintf("Field %q must be a string", name))
	}
	return nil
}
