package authority

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taxlink/internal/port"
)

// Shape identifies which of the authority's known response forms a reply
// matched. The set is closed; UnrecognizedOK is the explicit fallback for
// 200-level replies that match no decoder.
type Shape string

const (
	ShapeValidationEnvelope Shape = "validation_envelope"
	ShapeFlatSuccess        Shape = "flat_success"
	ShapeExplicitError      Shape = "explicit_error"
	ShapeEmptyBody          Shape = "empty_body"
	ShapeUnrecognizedOK     Shape = "unrecognized_2xx"
	ShapeTransportFailure   Shape = "transport_failure"
)

// Outcome is the classified result of one authority round-trip.
type Outcome struct {
	Shape                  Shape
	Success                bool
	AuthorityInvoiceNumber string
	ErrorMessage           string
}

// Classify interprets an authority reply. The authority's responses are not
// type-stable, so decoders are tried in documented priority order:
// validation envelope, flat success, explicit error, empty body, then the
// unrecognized-but-2xx fallback. A non-2xx transport status is always failure.
func Classify(reply *port.AuthorityReply) Outcome {
	if reply.StatusCode < 200 || reply.StatusCode > 299 {
		return Outcome{
			Shape:        ShapeTransportFailure,
			ErrorMessage: fmt.Sprintf("authority returned status %d: %s", reply.StatusCode, strings.TrimSpace(string(reply.Body))),
		}
	}

	if out, ok := decodeValidationEnvelope(reply.Body); ok {
		return out
	}
	if out, ok := decodeFlatSuccess(reply.Body); ok {
		return out
	}
	if out, ok := decodeExplicitError(reply.Body); ok {
		return out
	}
	if len(bytes.TrimSpace(reply.Body)) == 0 {
		// The authority occasionally acknowledges with an empty 200. Treated
		// as success with a synthesized fallback number so finalization can
		// still proceed.
		return Outcome{
			Shape:                  ShapeEmptyBody,
			Success:                true,
			AuthorityInvoiceNumber: fmt.Sprintf("AUTH-%d", time.Now().UnixMilli()),
		}
	}
	return Outcome{Shape: ShapeUnrecognizedOK, Success: true}
}

type validationEnvelope struct {
	ValidationResponse *struct {
		StatusCode    string `json:"statusCode"`
		Status        string `json:"status"`
		InvoiceNumber string `json:"invoiceNumber"`
		Error         string `json:"error"`
		InvoiceStatuses []struct {
			ItemSNo       string `json:"itemSNo"`
			StatusCode    string `json:"statusCode"`
			InvoiceNumber string `json:"invoiceNo"`
			Error         string `json:"error"`
		} `json:"invoiceStatuses"`
	} `json:"validationResponse"`
	InvoiceNumber string `json:"invoiceNumber"`
}

func decodeValidationEnvelope(body []byte) (Outcome, bool) {
	var env validationEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.ValidationResponse == nil {
		return Outcome{}, false
	}
	vr := env.ValidationResponse

	if vr.StatusCode == "00" {
		number := vr.InvoiceNumber
		if number == "" {
			number = env.InvoiceNumber
		}
		if number == "" {
			for _, st := range vr.InvoiceStatuses {
				if st.InvoiceNumber != "" {
					number = st.InvoiceNumber
					break
				}
			}
		}
		return Outcome{
			Shape:                  ShapeValidationEnvelope,
			Success:                true,
			AuthorityInvoiceNumber: number,
		}, true
	}

	// Failure: aggregate every per-item error plus the top-level one.
	var parts []string
	if vr.Error != "" {
		parts = append(parts, vr.Error)
	}
	for _, st := range vr.InvoiceStatuses {
		if st.Error != "" {
			if st.ItemSNo != "" {
				parts = append(parts, fmt.Sprintf("item %s: %s", st.ItemSNo, st.Error))
			} else {
				parts = append(parts, st.Error)
			}
		}
	}
	msg := strings.Join(parts, "; ")
	if msg == "" {
		msg = fmt.Sprintf("authority validation failed with status code %q", vr.StatusCode)
	}
	return Outcome{Shape: ShapeValidationEnvelope, ErrorMessage: msg}, true
}

type flatSuccess struct {
	InvoiceNumber string `json:"invoiceNumber"`
}

func decodeFlatSuccess(body []byte) (Outcome, bool) {
	var flat flatSuccess
	if err := json.Unmarshal(body, &flat); err != nil || flat.InvoiceNumber == "" {
		return Outcome{}, false
	}
	return Outcome{
		Shape:                  ShapeFlatSuccess,
		Success:                true,
		AuthorityInvoiceNumber: flat.InvoiceNumber,
	}, true
}

type explicitError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeExplicitError(body []byte) (Outcome, bool) {
	var e explicitError
	if err := json.Unmarshal(body, &e); err != nil || (e.Error == "" && e.Message == "") {
		return Outcome{}, false
	}
	var parts []string
	if e.Error != "" {
		parts = append(parts, e.Error)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	return Outcome{Shape: ShapeExplicitError, ErrorMessage: strings.Join(parts, ": ")}, true
}
