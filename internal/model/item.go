package model

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Item is one catalog listing as stored in its data.json document.
type Item struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Category           string   `json:"category"`
	Condition          string   `json:"condition"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discount_percentage"`
	FinalPrice         float64  `json:"final_price"`
	Images             []string `json:"images"`

	// Folder is the on-disk directory name, attached at load time.
	Folder string `json:"-"`
}

// ItemFields are the admin-editable fields of an item.
type ItemFields struct {
	Name               string  `json:"name" validate:"required"`
	Category           string  `json:"category" validate:"required,category"`
	Condition          string  `json:"condition" validate:"omitempty,condition"`
	Description        string  `json:"description"`
	Price              float64 `json:"price" validate:"gte=0"`
	DiscountPercentage float64 `json:"discount_percentage" validate:"gte=0,lte=100"`
}

// CategoryAll is the browse filter value that matches every category.
const CategoryAll = "All"

// Categories lists every category label, starting with CategoryAll.
var Categories = []string{
	CategoryAll,
	"GPUs",
	"CPUs",
	"Motherboards",
	"RAMs",
	"Storage (HDDs, SSDs)",
	"Power Supplies",
	"Cases",
	"Cooling Systems (Fans, Liquid Coolers)",
	"Full PCs",
	"Laptops",
	"Monitors",
	"Keyboards & Mice",
	"Headsets & Audio",
	"Software & Utilities",
	"Games",
	"Combo Deals & Offers",
	"Fixing & Repair Services",
}

// Item conditions.
const (
	ConditionBrandNew = "Brand New"
	ConditionLikeNew  = "Like New"
	ConditionPreOwned = "Pre-Owned"
)

// Conditions lists the item conditions in display order.
var Conditions = []string{ConditionBrandNew, ConditionLikeNew, ConditionPreOwned}

// ErrItemNotFound is returned when no item document exists for an ID.
var ErrItemNotFound = errors.New("item not found")

// ValidationError reports a field that must be corrected by the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorableCategory reports whether c may be stored on an item.
// CategoryAll is only a filter value.
func StorableCategory(c string) bool {
	if c == CategoryAll {
		return false
	}
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// ValidCondition reports whether c is a known condition.
func ValidCondition(c string) bool {
	for _, known := range Conditions {
		if known == c {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return StorableCategory(fl.Field().String())
	})
	v.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		return ValidCondition(fl.Field().String())
	})
	return v
}

// Validate checks the fields shared by create and update.
func (f *ItemFields) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	return &ValidationError{Field: jsonName(fe.Field()), Message: fieldMessage(fe)}
}

// ValidateForCreate additionally requires a strictly positive price and at
// least one image.
func (f *ItemFields) ValidateForCreate(imageCount int) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Price <= 0 {
		return &ValidationError{Field: "price", Message: "must be greater than 0"}
	}
	if imageCount == 0 {
		return &ValidationError{Field: "images", Message: "at least one image is required"}
	}
	return nil
}

// ConditionOrDefault returns the condition, or ConditionBrandNew when unset.
func (f *ItemFields) ConditionOrDefault() string {
	if f.Condition == "" {
		return ConditionBrandNew
	}
	return f.Condition
}

// ParseItemForm reads ItemFields from submitted form values. Blank numeric
// fields are zero; unparsable ones are a ValidationError.
func ParseItemForm(values url.Values) (ItemFields, error) {
	f := ItemFields{
		Name:        values.Get("name"),
		Category:    values.Get("category"),
		Condition:   values.Get("condition"),
		Description: values.Get("description"),
	}

	var err error
	if f.Price, err = parseNumber(values.Get("price")); err != nil {
		return f, &ValidationError{Field: "price", Message: "must be a number"}
	}
	if f.DiscountPercentage, err = parseNumber(values.Get("discount_percentage")); err != nil {
		return f, &ValidationError{Field: "discount_percentage", Message: "must be a number"}
	}
	return f, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func jsonName(field string) string {
	switch field {
	case "DiscountPercentage":
		return "discount_percentage"
	default:
		return strings.ToLower(field)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "category":
		return fmt.Sprintf("unknown category %q", fe.Value())
	case "condition":
		return fmt.Sprintf("unknown condition %q", fe.Value())
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// FinalPrice applies the discount percentage and rounds to two decimals.
// Rounding works on the exact binary value and breaks ties to even, so
// 2.675 becomes 2.67.
func FinalPrice(price, discountPercentage float64) float64 {
	v := price - price*discountPercentage/100
	final, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return final
}

// ApplyFields copies the editable fields onto the item and recomputes the
// final price.
func (i *Item) ApplyFields(f ItemFields) {
	i.Name = f.Name
	i.Category = f.Category
	i.Condition = f.ConditionOrDefault()
	i.Description = f.Description
	i.Price = f.Price
	i.DiscountPercentage = f.DiscountPercentage
	i.FinalPrice = FinalPrice(f.Price, f.DiscountPercentage)
}

// Fields returns the editable fields of the item.
func (i *Item) Fields() ItemFields {
	return ItemFields{
		Name:               i.Name,
		Category:           i.Category,
		Condition:          i.Condition,
		Description:        i.Description,
		Price:              i.Price,
		DiscountPercentage: i.DiscountPercentage,
	}
}

// HasDiscount reports whether a non-zero discount applies.
func (i *Item) HasDiscount() bool {
	return i.DiscountPercentage > 0
}
