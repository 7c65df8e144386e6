// Package loader reads orders and payment methods from JSON or YAML files.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Format identifies an input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// amount accepts a monetary value written either as a number or a string.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

func (a *amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a monetary value", node.Line)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid monetary value %q", node.Line, node.Value)
	}
	a.Decimal = d
	return nil
}

// percent accepts a whole-number percentage written either as a number or a string.
type percent int

func (p *percent) parse(raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid percentage %q", raw)
	}
	*p = percent(n)
	return nil
}

func (p *percent) UnmarshalJSON(data []byte) error {
	return p.parse(strings.Trim(string(data), `"`))
}

func (p *percent) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a percentage", node.Line)
	}
	if err := p.parse(node.Value); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

type orderRecord struct {
	ID         string   `json:"id" yaml:"id"`
	Value      amount   `json:"value" yaml:"value"`
	Promotions []string `json:"promotions" yaml:"promotions"`
}

type methodRecord struct {
	ID       string  `json:"id" yaml:"id"`
	Discount percent `json:"discount" yaml:"discount"`
	Limit    amount  `json:"limit" yaml:"limit"`
}

// LoadOrders reads the orders file at path.
func LoadOrders(path string) ([]domain.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open orders file: %w", err)
	}
	defer f.Close()

	orders, err := DecodeOrders(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return orders, nil
}

// LoadPaymentMethods reads the payment methods file at path.
func LoadPaymentMethods(path string) ([]domain.PaymentMethod, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payment methods file: %w", err)
	}
	defer f.Close()

	methods, err := DecodePaymentMethods(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return methods, nil
}

// DecodeOrders parses a list of orders. Promotions are never nil in the result.
func DecodeOrders(r io.Reader, format Format) ([]domain.Order, error) {
	var records []orderRecord
	if err := decode(r, format, &records); err != nil {
		return nil, fmt.Errorf("failed to parse orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(records))
	for _, rec := range records {
		promotions := rec.Promotions
		if promotions == nil {
			promotions = []string{}
		}
		orders = append(orders, domain.Order{
			ID:         rec.ID,
			Value:      rec.Value.Decimal,
			Promotions: promotions,
		})
	}
	return orders, nil
}

// DecodePaymentMethods parses a list of payment methods.
func DecodePaymentMethods(r io.Reader, format Format) ([]domain.PaymentMethod, error) {
	var records []methodRecord
	if err := decode(r, format, &records); err != nil {
		return nil, fmt.Errorf("failed to parse payment methods: %w", err)
	}

	methods := make([]domain.PaymentMethod, 0, len(records))
	for _, rec := range records {
		methods = append(methods, domain.PaymentMethod{
			ID:       rec.ID,
			Discount: int(rec.Discount),
			Limit:    rec.Limit.Decimal,
		})
	}
	return methods, nil
}

func decode(r io.Reader, format Format, out any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty input", domain.ErrInvalidArgument)
	}

	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, out)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	default:
		return domain.InvalidArgument("unsupported input format %q", format)
	}
}
