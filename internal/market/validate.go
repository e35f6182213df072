package market

import (
	"encoding/json"
	"fmt"
)

// Validator checks inbound rating batches against the expected schema and
// rating bounds. The inbound payload is untrusted: it is decoded field by
// field rather than straight into StockRecord.
type Validator struct {
	RatingMin int
	RatingMax int
}

// Validate parses raw JSON from the rating callback and returns the
// surviving records in input order.
//
// Shape problems (body is not an array, an element is not an object) fail
// the whole batch. Content problems (missing fields, non-integer or
// out-of-range rating) drop the offending record only. An empty input
// batch, or a batch left empty after filtering, is a hard failure.
func (v Validator) Validate(raw []byte) ([]StockRecord, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("%w: body is not a JSON array: %v", ErrMalformedBatch, err)
	}

	if len(elements) == 0 {
		return nil, ErrEmptyBatch
	}

	var valid []StockRecord
	for i, element := range elements {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(element, &fields); err != nil {
			return nil, fmt.Errorf("%w: element %d is not an object: %v", ErrMalformedBatch, i, err)
		}

		record, ok := v.parseRecord(fields)
		if !ok {
			continue
		}
		valid = append(valid, record)
	}

	if len(valid) == 0 {
		return nil, ErrNoValidRecords
	}

	return valid, nil
}

// parseRecord extracts one record from its raw fields. A false return means
// the record does not conform and is dropped.
func (v Validator) parseRecord(fields map[string]json.RawMessage) (StockRecord, bool) {
	nameRaw, ok := fields["name"]
	if !ok {
		return StockRecord{}, false
	}
	dateRaw, ok := fields["date"]
	if !ok {
		return StockRecord{}, false
	}
	ratingRaw, ok := fields["rating"]
	if !ok {
		return StockRecord{}, false
	}

	var name string
	if err := json.Unmarshal(nameRaw, &name); err != nil {
		return StockRecord{}, false
	}

	date, ok := parseInt(dateRaw)
	if !ok {
		return StockRecord{}, false
	}

	rating, ok := parseInt(ratingRaw)
	if !ok || int(rating) < v.RatingMin || int(rating) > v.RatingMax {
		return StockRecord{}, false
	}

	// The inbound schema does not include sale; it is assigned by the
	// recommendation phase. A well-formed sale field is carried through so
	// that re-validating a valid batch is the identity.
	var sale int64
	if saleRaw, present := fields["sale"]; present {
		if n, isInt := parseInt(saleRaw); isInt {
			sale = n
		}
	}

	return StockRecord{
		Name:   name,
		Date:   date,
		Rating: int(rating),
		Sale:   int(sale),
	}, true
}

// parseInt accepts a JSON number only when it is an integer.
func parseInt(raw json.RawMessage) (int64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	n := int64(f)
	if float64(n) != f {
		return 0, false
	}
	return n, true
}
