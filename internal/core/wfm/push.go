package wfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/solatis/adjrules/internal/rules"
	"github.com/solatis/adjrules/internal/types"
)

// PushResult reports one update sent for one modified record.
type PushResult struct {
	RuleID     int64
	VersionNum string
	Status     int
	Payload    []byte
	Err        error
}

// Pusher sends change-sets to the API, one PUT per modified record.
type Pusher struct {
	Client *Client
	// DryRun builds payloads without sending them.
	DryRun bool
	// Validate, if set, checks each built payload before it is sent.
	// A failing payload is never sent and stops the run.
	Validate func(types.Document) error
	// OnResult, if set, is called after every attempted record.
	OnResult func(PushResult)
}

// Push fetches each record's original rule, builds the update payload and
// sends it. Records without a Rule ID are skipped. The first failure stops
// the run and is returned; results already reported stay reported.
func (p *Pusher) Push(ctx context.Context, records []types.FlatRecord) ([]PushResult, error) {
	var results []PushResult
	for _, rec := range records {
		raw := strings.TrimSpace(rec[types.LabelRuleID])
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return results, &types.ValidationError{Field: types.LabelRuleID, Value: raw, Reason: "must be an integer"}
		}

		res := p.pushOne(ctx, id, rec)
		results = append(results, res)
		if p.OnResult != nil {
			p.OnResult(res)
		}
		if res.Err != nil {
			return results, fmt.Errorf("failed to update rule %d: %w", id, res.Err)
		}
	}
	return results, nil
}

func (p *Pusher) pushOne(ctx context.Context, id int64, rec types.FlatRecord) PushResult {
	res := PushResult{RuleID: id, VersionNum: strings.TrimSpace(rec[types.LabelVersionNumber])}

	original, err := p.Client.GetRule(ctx, id)
	if err != nil {
		res.Err = fmt.Errorf("could not retrieve original data: %w", err)
		return res
	}

	payload, err := rules.BuildUpdatePayload([]types.FlatRecord{rec}, original)
	if err != nil {
		res.Err = err
		return res
	}
	if p.Validate != nil {
		if err := p.Validate(payload); err != nil {
			res.Err = err
			return res
		}
	}
	if res.Payload, err = json.Marshal(payload); err != nil {
		res.Err = err
		return res
	}

	if p.DryRun {
		return res
	}

	if err := p.Client.UpdateRule(ctx, id, payload); err != nil {
		res.Err = err
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			res.Status = apiErr.Status
		}
		return res
	}
	res.Status = http.StatusOK
	return res
}
