package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	MaxIDLength    = 128
	MaxLabelLength = 256
	MaxRunTicks    = 1_000_000

	idPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)
)

// ErrInvalidRequest wraps every request validation failure
var ErrInvalidRequest = errors.New("invalid request")

func init() {
	validate = validator.New()
}

// NodeRequest is the validated shape of a graph node
type NodeRequest struct {
	ID     string `validate:"required,max=128"`
	Label  string `validate:"max=256"`
	Parent string `validate:"max=128"`
}

// EdgeRequest is the validated shape of a graph edge
type EdgeRequest struct {
	ID     string   `validate:"max=128"`
	Source string   `validate:"required,max=128"`
	Target string   `validate:"required,max=128"`
	Label  string   `validate:"max=256"`
	Weight *float64 `validate:"omitempty,gte=0"`
}

// GraphRequest is the validated shape of an uploaded graph
type GraphRequest struct {
	Nodes []NodeRequest `validate:"dive"`
	Edges []EdgeRequest `validate:"required,min=1,dive"`
}

// RunRequest bounds a run-to-convergence call
type RunRequest struct {
	MaxTicks int `json:"max_ticks" validate:"omitempty,min=1,max=1000000"`
}

// LoginRequest exchanges a username and password for a token
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// ValidateGraph checks an uploaded graph before it is converted. maxNodes <= 0 means no limit.
func ValidateGraph(g *louvain.Graph, maxNodes int) error {
	if g == nil {
		return fmt.Errorf("%w: graph cannot be nil", ErrInvalidRequest)
	}

	req := GraphRequest{
		Nodes: make([]NodeRequest, len(g.Nodes)),
		Edges: make([]EdgeRequest, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		req.Nodes[i] = NodeRequest{ID: n.ID, Label: n.Label, Parent: n.Parent}
	}
	for i, e := range g.Edges {
		req.Edges[i] = EdgeRequest{ID: e.ID, Source: e.Source, Target: e.Target, Label: e.Label, Weight: e.Weight}
	}

	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, formatValidationError(err))
	}

	for i, n := range g.Nodes {
		if !idPattern.MatchString(n.ID) {
			return fmt.Errorf("%w: Nodes[%d].ID: %q contains invalid characters", ErrInvalidRequest, i, n.ID)
		}
	}
	for i, e := range g.Edges {
		if e.Weight != nil && math.IsInf(*e.Weight, 0) {
			return fmt.Errorf("%w: Edges[%d].Weight: must be finite", ErrInvalidRequest, i)
		}
	}

	if maxNodes > 0 {
		if n := countNodes(g); n > maxNodes {
			return fmt.Errorf("%w: graph has %d nodes, limit is %d", ErrInvalidRequest, n, maxNodes)
		}
	}
	return nil
}

// ValidateRunRequest validates the optional tick bound of a run request
func ValidateRunRequest(req *RunRequest) error {
	if req == nil {
		return nil
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, formatValidationError(err))
	}
	return nil
}

// ValidateLoginRequest validates a login request
func ValidateLoginRequest(req *LoginRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request cannot be nil", ErrInvalidRequest)
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, formatValidationError(err))
	}
	return nil
}

// ParseLimit parses a page size query parameter. Empty means def and
// values above max are clamped.
func ParseLimit(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer, got %q", ErrInvalidRequest, raw)
	}
	if n > max {
		return max, nil
	}
	return n, nil
}

// countNodes counts declared nodes, or the distinct edge endpoints when none are declared
func countNodes(g *louvain.Graph) int {
	if len(g.Nodes) > 0 {
		return len(g.Nodes)
	}
	seen := make(map[string]struct{})
	for _, e := range g.Edges {
		seen[e.Source] = struct{}{}
		seen[e.Target] = struct{}{}
	}
	return len(seen)
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Report the first failure only
	for _, e := range validationErrs {
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gte":
			return fmt.Errorf("%s: must be greater than or equal to %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
