// internal/db/catalog.go
package db

import (
	"context"
)

const getCourt = `
SELECT id, name, court_type, hourly_base_rate, status, created_at
FROM courts
WHERE id = ?
`

func (q *Queries) GetCourt(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx, getCourt, id)
	var c Court
	err := row.Scan(&c.ID, &c.Name, &c.CourtType, &c.HourlyBaseRate, &c.Status, &c.CreatedAt)
	return c, err
}

const listCourts = `
SELECT id, name, court_type, hourly_base_rate, status, created_at
FROM courts
ORDER BY id
`

func (q *Queries) ListCourts(ctx context.Context) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, listCourts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.Name, &c.CourtType, &c.HourlyBaseRate, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

const getEquipment = `
SELECT id, name, total_quantity, hourly_rate, created_at
FROM equipment
WHERE id = ?
`

func (q *Queries) GetEquipment(ctx context.Context, id int64) (Equipment, error) {
	row := q.db.QueryRowContext(ctx, getEquipment, id)
	var e Equipment
	err := row.Scan(&e.ID, &e.Name, &e.TotalQuantity, &e.HourlyRate, &e.CreatedAt)
	return e, err
}

const getCoach = `
SELECT id, name, email, hourly_rate, created_at
FROM coaches
WHERE id = ?
`

func (q *Queries) GetCoach(ctx context.Context, id int64) (Coach, error) {
	row := q.db.QueryRowContext(ctx, getCoach, id)
	var c Coach
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.HourlyRate, &c.CreatedAt)
	return c, err
}

const listActivePricingRules = `
SELECT id, name, rule_type, multiplier, priority, active,
       start_hour, end_hour, days_of_week, court_types, start_date, end_date,
       created_at
FROM pricing_rules
WHERE active = 1
ORDER BY priority DESC, id ASC
`

// ListActivePricingRules returns active rules ordered by priority, with
// insertion order as the stable tie-break.
func (q *Queries) ListActivePricingRules(ctx context.Context) ([]PricingRule, error) {
	rows, err := q.db.QueryContext(ctx, listActivePricingRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []PricingRule
	for rows.Next() {
		var r PricingRule
		if err := rows.Scan(
			&r.ID, &r.Name, &r.RuleType, &r.Multiplier, &r.Priority, &r.Active,
			&r.StartHour, &r.EndHour, &r.DaysOfWeek, &r.CourtTypes, &r.StartDate, &r.EndDate,
			&r.CreatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

const getUser = `
SELECT id, name, email, phone, created_at
FROM users
WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.CreatedAt)
	return u, err
}

const updateUserPhone = `
UPDATE users SET phone = ? WHERE id = ?
`

type UpdateUserPhoneParams struct {
	Phone string
	ID    int64
}

func (q *Queries) UpdateUserPhone(ctx context.Context, arg UpdateUserPhoneParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPhone, arg.Phone, arg.ID)
	return err
}
