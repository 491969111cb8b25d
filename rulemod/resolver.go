package rulemod

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/haven-social/warden/rulemod/countstore"
)

// Resolver builds the flat field-value mapping for one event from the
// caller's context bundle, filling user_history gaps from the countstore and
// deriving time_based fields from the event timestamp. Resolution has no
// side effects; missing upstream data falls back to the documented per-field
// default or to "unknown".
type Resolver struct {
	Counters countstore.CountStore
	Logger   *slog.Logger
}

func (r *Resolver) Resolve(ctx context.Context, evt *ModerationEvent) *EvaluationContext {
	values := make(map[string]FieldValue, len(fieldCatalog))
	for i := range fieldCatalog {
		spec := &fieldCatalog[i]
		values[spec.FQN()] = r.resolveField(ctx, spec, evt)
	}
	return &EvaluationContext{
		Event:          evt,
		CatalogVersion: CatalogVersion,
		Values:         values,
	}
}

func (r *Resolver) resolveField(ctx context.Context, spec *FieldSpec, evt *ModerationEvent) FieldValue {
	switch spec.Category {
	case CategoryContentAnalysis:
		return resolveAnalysis(spec, &evt.Bundle)
	case CategoryUserReputation:
		return resolveReputation(spec, evt.Bundle.Reputation)
	case CategoryUserHistory:
		return r.resolveHistory(ctx, spec, evt)
	case CategoryTimeBased:
		return resolveTime(spec, evt.OccurredAt)
	case CategoryContentMetadata:
		return resolveMetadata(spec, evt)
	}
	return unknownValue(spec.Type)
}

func resolveAnalysis(spec *FieldSpec, bundle *ContextBundle) FieldValue {
	if spec.Name == "language" {
		if bundle.Language == "" {
			return unknownValue(FieldString)
		}
		return strValue(strings.ToLower(bundle.Language))
	}
	score, ok := bundle.Analysis[spec.Name]
	if !ok {
		// missing score stays unknown rather than being coerced to 0
		return unknownValue(FieldNumber)
	}
	return numValue(score)
}

func resolveReputation(spec *FieldSpec, rep *ReputationMeta) FieldValue {
	switch spec.Name {
	case "score":
		if rep == nil {
			return numValue(0)
		}
		return numValue(rep.Score)
	case "level":
		if rep == nil || rep.Level == "" {
			return strValue(spec.DefaultStr)
		}
		return strValue(strings.ToLower(rep.Level))
	case "verified":
		if rep == nil {
			return boolValue(false)
		}
		return boolValue(rep.Verified)
	}
	return unknownValue(spec.Type)
}

func (r *Resolver) resolveHistory(ctx context.Context, spec *FieldSpec, evt *ModerationEvent) FieldValue {
	if v, ok := evt.Bundle.History[spec.Name]; ok {
		return numValue(float64(v))
	}
	if spec.Name == "account_age_days" {
		if rep := evt.Bundle.Reputation; rep != nil {
			return numValue(float64(rep.AccountAgeDays))
		}
		return numValue(0)
	}
	if r.Counters == nil || evt.UserID == "" {
		return numValue(0)
	}
	name, period := historyCounter(spec.Name)
	v, err := r.Counters.GetCount(ctx, name, evt.UserID, period)
	if err != nil {
		// one unavailable upstream signal must not sink the evaluation
		if r.Logger != nil {
			r.Logger.Warn("history counter lookup failed", "field", spec.FQN(), "err", err)
		}
		return unknownValue(FieldNumber)
	}
	return numValue(float64(v))
}

func historyCounter(field string) (name, period string) {
	switch field {
	case "reports_received_day":
		return countstore.NameReportsReceived, countstore.PeriodDay
	case "posts_created_day":
		return countstore.NamePostsCreated, countstore.PeriodDay
	default:
		return countstore.NameViolations, countstore.PeriodTotal
	}
}

func resolveTime(spec *FieldSpec, at time.Time) FieldValue {
	at = at.UTC()
	switch spec.Name {
	case "hour_of_day":
		return numValue(float64(at.Hour()))
	case "day_of_week":
		return strValue(strings.ToLower(at.Weekday().String()))
	case "is_weekend":
		wd := at.Weekday()
		return boolValue(wd == time.Saturday || wd == time.Sunday)
	}
	return unknownValue(spec.Type)
}

func resolveMetadata(spec *FieldSpec, evt *ModerationEvent) FieldValue {
	meta := evt.Bundle.Metadata
	switch spec.Name {
	case "text":
		if meta == nil {
			return strValue("")
		}
		return strValue(meta.Text)
	case "content_type":
		ct := evt.ContentType
		if ct == "" && meta != nil {
			ct = meta.ContentType
		}
		if ct == "" {
			return unknownValue(FieldString)
		}
		return strValue(strings.ToLower(ct))
	case "length":
		if meta == nil {
			return numValue(0)
		}
		if meta.Length > 0 {
			return numValue(float64(meta.Length))
		}
		return numValue(float64(len(meta.Text)))
	case "link_count":
		if meta == nil {
			return numValue(0)
		}
		return numValue(float64(meta.LinkCount))
	case "media_count":
		if meta == nil {
			return numValue(0)
		}
		return numValue(float64(meta.MediaCount))
	case "has_media":
		if meta == nil {
			return boolValue(false)
		}
		return boolValue(meta.HasMedia || meta.MediaCount > 0)
	}
	return unknownValue(spec.Type)
}
