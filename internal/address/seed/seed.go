// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package seed fills address books with generated addresses for development.

Generated tuples can collide with an existing address of the same owner. Such
collisions are counted and skipped; they never abort the run.
*/
package seed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/taibuivan/addressbook/internal/address"
)

// Creator stores one address for an owner.
type Creator interface {
	Create(context context.Context, caller string, fields address.Fields) (*address.Address, error)
}

// Report summarises a seeding run.
type Report struct {
	Created    int
	Duplicates int
}

// Seeder generates addresses with a deterministic faker.
type Seeder struct {
	creator Creator
	faker   *gofakeit.Faker
	logger  *slog.Logger
}

// New creates a seeder. The same seed yields the same sequence of addresses.
func New(creator Creator, seed uint64, logger *slog.Logger) *Seeder {
	return &Seeder{
		creator: creator,
		faker:   gofakeit.New(seed),
		logger:  logger,
	}
}

// Fields returns one generated address.
func (seeder *Seeder) Fields() address.Fields {
	return address.Fields{
		Street:   seeder.faker.Street(),
		City:     seeder.faker.City(),
		Postcode: seeder.faker.Zip(),
		Country:  seeder.faker.Country(),
	}
}

/*
Run creates perOwner addresses for each owner.

Returns:
  - Report: Created and skipped counts over all owners
  - error: The first failure other than a duplicate, or context cancellation
*/
func (seeder *Seeder) Run(context context.Context, owners []string, perOwner int) (Report, error) {
	var report Report

	for _, owner := range owners {
		for range perOwner {
			if err := context.Err(); err != nil {
				return report, err
			}

			_, err := seeder.creator.Create(context, owner, seeder.Fields())
			switch {
			case err == nil:
				report.Created++
			case errors.Is(err, address.ErrAlreadyExists):
				report.Duplicates++
			default:
				return report, err
			}
		}

		seeder.logger.InfoContext(context, "owner_seeded", slog.String("owner_id", owner))
	}

	return report, nil
}
