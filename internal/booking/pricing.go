// internal/booking/pricing.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jkoster/courtbook/internal/db"
)

const (
	RuleTimeBased = "time_based"
	RuleDayBased  = "day_based"
	RuleCourtType = "court_type"
	RuleSeasonal  = "seasonal"
	RuleCustom    = "custom"
)

// PriceRequest describes the resource bundle to quote.
type PriceRequest struct {
	CourtID   int64
	CoachID   *int64
	Equipment []EquipmentLine
	Start     time.Time
	End       time.Time
}

// Quote prices a bundle without booking it. Active rules are evaluated in
// priority order and every matching multiplier stacks, so two quotes for
// the same inputs always agree.
func (s *Service) Quote(ctx context.Context, req PriceRequest) (*Quote, error) {
	start, end, err := normalizeWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	req.Start, req.End = start, end
	return s.quote(ctx, s.store.Queries, req)
}

func (s *Service) quote(ctx context.Context, q *db.Queries, req PriceRequest) (*Quote, error) {
	hours := req.End.Sub(req.Start).Hours()

	court, err := q.GetCourt(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundf("court %d not found", req.CourtID)
		}
		return nil, internalf(err, "load court %d", req.CourtID)
	}
	courtFee := court.HourlyBaseRate * hours

	var equipmentFee float64
	for _, line := range req.Equipment {
		item, err := q.GetEquipment(ctx, line.EquipmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, NotFoundf("equipment %d not found", line.EquipmentID)
			}
			return nil, internalf(err, "load equipment %d", line.EquipmentID)
		}
		equipmentFee += item.HourlyRate * float64(line.Quantity) * hours
	}

	var coachFee float64
	if req.CoachID != nil {
		coach, err := q.GetCoach(ctx, *req.CoachID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, NotFoundf("coach %d not found", *req.CoachID)
			}
			return nil, internalf(err, "load coach %d", *req.CoachID)
		}
		coachFee = coach.HourlyRate * hours
	}

	baseTotal := courtFee + equipmentFee + coachFee

	rules, err := q.ListActivePricingRules(ctx)
	if err != nil {
		return nil, internalf(err, "load pricing rules")
	}

	applied := make([]AppliedRule, 0, len(rules))
	multiplier := 1.0
	for _, rule := range rules {
		if !ruleApplies(rule, court, req.Start) {
			continue
		}
		multiplier *= rule.Multiplier
		applied = append(applied, AppliedRule{
			RuleID:     rule.ID,
			Name:       rule.Name,
			Multiplier: rule.Multiplier,
		})
	}

	return &Quote{
		CourtFee:      round2(courtFee),
		EquipmentFee:  round2(equipmentFee),
		CoachFee:      round2(coachFee),
		BaseTotal:     round2(baseTotal),
		AppliedRules:  applied,
		FinalTotal:    round2(baseTotal * multiplier),
		DurationHours: hours,
	}, nil
}

// ruleApplies evaluates one rule's condition against the booking start
// time and court. An unknown rule type never matches.
func ruleApplies(rule db.PricingRule, court db.Court, start time.Time) bool {
	switch rule.RuleType {
	case RuleTimeBased:
		if !rule.StartHour.Valid || !rule.EndHour.Valid {
			return false
		}
		h := int64(start.Hour())
		return h >= rule.StartHour.Int64 && h < rule.EndHour.Int64

	case RuleDayBased:
		// Empty day list matches every day.
		if !rule.DaysOfWeek.Valid || strings.TrimSpace(rule.DaysOfWeek.String) == "" {
			return true
		}
		day := int(start.Weekday())
		for _, field := range strings.Split(rule.DaysOfWeek.String, ",") {
			d, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				continue
			}
			if d == day {
				return true
			}
		}
		return false

	case RuleCourtType:
		if !rule.CourtTypes.Valid {
			return false
		}
		for _, field := range strings.Split(rule.CourtTypes.String, ",") {
			if strings.TrimSpace(field) == court.CourtType {
				return true
			}
		}
		return false

	case RuleSeasonal:
		if !rule.StartDate.Valid || !rule.EndDate.Valid {
			return false
		}
		from, err := time.ParseInLocation(dateLayout, rule.StartDate.String, time.UTC)
		if err != nil {
			return false
		}
		to, err := time.ParseInLocation(dateLayout, rule.EndDate.String, time.UTC)
		if err != nil {
			return false
		}
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		return !day.Before(from) && !day.After(to)

	default:
		// Custom rules have no machine-evaluable condition.
		return false
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
