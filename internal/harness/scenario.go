package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cartsync/internal/collection"
)

// Scenario is a sequence of cart/wishlist operations plus the assertions
// the resulting event trace and final state must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Owner, when set, is configured on every device and enables the shared
	// in-memory remote.
	Owner string `yaml:"owner,omitempty"`

	// Locale is the BCP 47 tag used for wishlist name collation.
	Locale string `yaml:"locale,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation.
type Step struct {
	// Op names the operation, e.g. "cart.add" or "remote.fail".
	Op string `yaml:"op"`

	// Device selects which device runs the step (default "default").
	Device string `yaml:"device,omitempty"`

	// Item is the product for add and toggle steps.
	Item *collection.Product `yaml:"item,omitempty"`

	// Qty is the quantity for cart.add (default 1) and cart.update.
	Qty *int `yaml:"qty,omitempty"`

	// Entry addresses an entry by ID for remove and update steps.
	Entry string `yaml:"entry,omitempty"`

	// Product and Variant address an item for remove_item/remove_product.
	Product string `yaml:"product,omitempty"`
	Variant string `yaml:"variant,omitempty"`

	// By and Desc configure wishlist.sort: by is name, price or recency.
	By   string `yaml:"by,omitempty"`
	Desc bool   `yaml:"desc,omitempty"`

	// Local runs a mutation without the remote leg.
	Local bool `yaml:"local,omitempty"`

	// ExpectError marks a pull or push that must fail.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// DeviceName returns the step's device, defaulting to DefaultDevice.
func (s Step) DeviceName() string {
	if s.Device == "" {
		return DefaultDevice
	}
	return s.Device
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of event_count, event_order, final_state.
	Type string `yaml:"type"`

	// Topic is the event topic (event_count).
	Topic string `yaml:"topic,omitempty"`

	// Count is the expected number of occurrences (event_count).
	Count int `yaml:"count,omitempty"`

	// Topics is the expected topic order (event_order).
	Topics []string `yaml:"topics,omitempty"`

	// Device and Kind select the collection (final_state). Device may be
	// "remote" to inspect the stored remote snapshot.
	Device string `yaml:"device,omitempty"`
	Kind   string `yaml:"kind,omitempty"`

	// Expect holds the expected values (final_state). Unset fields are not
	// checked.
	Expect *StateExpect `yaml:"expect,omitempty"`
}

// StateExpect lists the final_state fields to check.
type StateExpect struct {
	Count      *int     `yaml:"count,omitempty"`
	Total      *int64   `yaml:"total,omitempty"`
	Items      []string `yaml:"items,omitempty"`
	Quantities []int    `yaml:"quantities,omitempty"`
	Missing    bool     `yaml:"missing,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount = "event_count"
	AssertEventOrder = "event_order"
	AssertFinalState = "final_state"
)

// DefaultDevice is the device steps run on when none is named.
const DefaultDevice = "default"

// RemoteDevice names the remote record store in final_state assertions.
const RemoteDevice = "remote"

// Step operation names.
const (
	OpCartAdd        = "cart.add"
	OpCartRemove     = "cart.remove"
	OpCartRemoveItem = "cart.remove_item"
	OpCartUpdate     = "cart.update"
	OpCartClear      = "cart.clear"
	OpCartGet        = "cart.get"
	OpCartPull       = "cart.pull"
	OpCartPush       = "cart.push"

	OpWishlistAdd           = "wishlist.add"
	OpWishlistRemove        = "wishlist.remove"
	OpWishlistRemoveProduct = "wishlist.remove_product"
	OpWishlistToggle        = "wishlist.toggle"
	OpWishlistSort          = "wishlist.sort"
	OpWishlistClear         = "wishlist.clear"
	OpWishlistGet           = "wishlist.get"
	OpWishlistPull          = "wishlist.pull"
	OpWishlistPush          = "wishlist.push"

	OpRemoteFail    = "remote.fail"
	OpRemoteRecover = "remote.recover"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step, s.Owner != ""); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s Step, hasOwner bool) error {
	if s.Device == RemoteDevice {
		return fmt.Errorf("steps[%d]: device %q is reserved", index, RemoteDevice)
	}

	switch s.Op {
	case OpCartAdd, OpWishlistAdd, OpWishlistToggle:
		if s.Item == nil {
			return fmt.Errorf("steps[%d]: item is required for %s", index, s.Op)
		}
	case OpCartRemove, OpWishlistRemove:
		if s.Entry == "" {
			return fmt.Errorf("steps[%d]: entry is required for %s", index, s.Op)
		}
	case OpCartUpdate:
		if s.Entry == "" {
			return fmt.Errorf("steps[%d]: entry is required for %s", index, s.Op)
		}
		if s.Qty == nil {
			return fmt.Errorf("steps[%d]: qty is required for %s", index, s.Op)
		}
	case OpCartRemoveItem, OpWishlistRemoveProduct:
		if s.Product == "" {
			return fmt.Errorf("steps[%d]: product is required for %s", index, s.Op)
		}
	case OpWishlistSort:
		switch s.By {
		case "name", "price", "recency":
		default:
			return fmt.Errorf("steps[%d]: by must be name, price or recency, got %q", index, s.By)
		}
	case OpCartClear, OpWishlistClear, OpCartGet, OpWishlistGet,
		OpCartPull, OpCartPush, OpWishlistPull, OpWishlistPush:
	case OpRemoteFail, OpRemoteRecover:
		if !hasOwner {
			return fmt.Errorf("steps[%d]: %s requires an owner", index, s.Op)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventCount:
		if a.Topic == "" {
			return fmt.Errorf("assertions[%d]: topic is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Topics) == 0 {
			return fmt.Errorf("assertions[%d]: topics list is required for event_order", index)
		}
	case AssertFinalState:
		if _, err := collection.ParseKind(a.Kind); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
