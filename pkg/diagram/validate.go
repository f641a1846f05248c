package diagram

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/netdraw/pkg/errors"
)

// SupportedMajor is the only document major version this package reads.
const SupportedMajor = 1

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names so issue paths match the file the user wrote.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks d against the document schema and the referential rules
// listed in the package documentation. It returns nil for a valid document,
// an UNSUPPORTED_VERSION error for a document from an unknown major
// version, and otherwise an INVALID_DOCUMENT error wrapping a
// *errors.ValidationError with every issue found.
func Validate(d *Document) error {
	if d == nil {
		return errors.New(errors.ErrCodeInvalidDocument, "document is empty")
	}
	if d.Version != "" {
		if _, err := CheckVersion(d.Version); err != nil {
			return err
		}
	}

	ve := &errors.ValidationError{}
	addStructIssues(ve, "", d)

	pageIDs := make(map[string]int, len(d.Pages))
	for pi, p := range d.Pages {
		if p == nil {
			continue
		}
		pp := fmt.Sprintf("pages[%d].", pi)
		if prev, dup := pageIDs[p.ID]; dup && p.ID != "" {
			ve.Add(pp+"id", "duplicate page id %q (first used by pages[%d])", p.ID, prev)
		} else {
			pageIDs[p.ID] = pi
		}
		validatePage(ve, pp, p)
	}

	if err := ve.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "document failed validation")
	}
	return nil
}

func validatePage(ve *errors.ValidationError, prefix string, p *Page) {
	byID := make(map[string]int, len(p.Elements))
	for i, e := range p.Elements {
		if e.ID == "" {
			continue
		}
		if prev, dup := byID[e.ID]; dup {
			ve.Add(fmt.Sprintf("%selements[%d].id", prefix, i), "duplicate element id %q (first used by elements[%d])", e.ID, prev)
			continue
		}
		byID[e.ID] = i
	}
	lookup := func(id string) *Element {
		if i, ok := byID[id]; ok {
			return &p.Elements[i]
		}
		return nil
	}
	for i, e := range p.Elements {
		ep := fmt.Sprintf("%selements[%d].", prefix, i)
		checkKindFields(ve, ep, e)
		if e.IsConnection() {
			checkEndpoints(ve, ep, e, lookup)
		}
	}
}

// addStructIssues runs the struct tag rules on v and records each failure.
func addStructIssues(ve *errors.ValidationError, prefix string, v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var fes validator.ValidationErrors
	if !stderrors.As(err, &fes) {
		ve.Add(prefix, "%v", err)
		return
	}
	for _, fe := range fes {
		ve.Add(prefix+fieldPath(fe), "%s", describe(fe))
	}
}

// fieldPath strips the root type name from a validator namespace:
// "Document.pages[0].name" becomes "pages[0].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s (got %q)", strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	case "eq":
		return fmt.Sprintf("must be %q", fe.Param())
	case "ip":
		return "must be an IP address"
	case "hexcolor":
		return "must be a hex color such as #1f2937"
	case "min":
		return fmt.Sprintf("must have at least %s item(s)", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	}
	return fmt.Sprintf("failed %q rule", fe.Tag())
}

// Version is a parsed MAJOR.MINOR document version.
type Version struct {
	Major, Minor int
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// ParseVersion parses "MAJOR.MINOR". A bare "MAJOR" is read as MAJOR.0.
func ParseVersion(s string) (Version, error) {
	majorStr, minorStr, hasMinor := strings.Cut(strings.TrimSpace(s), ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 {
		return Version{}, errors.New(errors.ErrCodeInvalidDocument, "invalid version %q (want MAJOR.MINOR)", s)
	}
	v := Version{Major: major}
	if hasMinor {
		minor, err := strconv.Atoi(minorStr)
		if err != nil || minor < 0 {
			return Version{}, errors.New(errors.ErrCodeInvalidDocument, "invalid version %q (want MAJOR.MINOR)", s)
		}
		v.Minor = minor
	}
	return v, nil
}

// CheckVersion reports whether a document with version s can be read.
// Any 1.x version is accepted; newer reports whether s is a later minor
// version than [CurrentVersion], in which case unknown fields are dropped on
// import.
func CheckVersion(s string) (newer bool, err error) {
	v, err := ParseVersion(s)
	if err != nil {
		return false, err
	}
	if v.Major != SupportedMajor {
		return false, errors.New(errors.ErrCodeUnsupportedVersion,
			"document version %s is not supported (supported: %d.x)", s, SupportedMajor)
	}
	cur, _ := ParseVersion(CurrentVersion)
	return v.Minor > cur.Minor, nil
}
