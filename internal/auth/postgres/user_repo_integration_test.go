// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/holotask/internal/auth"
	"github.com/holomush/holotask/internal/auth/postgres"
)

var _ = Describe("UserRepository", func() {
	var (
		ctx  context.Context
		repo *postgres.UserRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = postgres.NewUserRepository(testPool)
		_, err := testPool.Exec(ctx, `TRUNCATE users CASCADE`)
		Expect(err).NotTo(HaveOccurred())
	})

	newUser := func(email string) *auth.User {
		user, err := auth.NewUser(email, "hash")
		Expect(err).NotTo(HaveOccurred())
		return user
	}

	It("round-trips a user with ordered sessions", func() {
		user := newUser("ada@example.com")
		Expect(repo.Create(ctx, user)).To(Succeed())
		for i := range 3 {
			Expect(repo.AppendSession(ctx, user.ID, auth.Session{
				Token:   fmt.Sprintf("tok-%d", i),
				Purpose: auth.SessionPurposeAuth,
			})).To(Succeed())
		}

		stored, err := repo.GetByEmail(ctx, "ada@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ID).To(Equal(user.ID))
		Expect(stored.Sessions).To(Equal([]auth.Session{
			{Token: "tok-0", Purpose: "auth"},
			{Token: "tok-1", Purpose: "auth"},
			{Token: "tok-2", Purpose: "auth"},
		}))

		Expect(repo.RemoveSession(ctx, user.ID, "tok-1")).To(Succeed())
		Expect(repo.RemoveSession(ctx, user.ID, "tok-1")).To(Succeed())

		stored, err = repo.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Sessions).To(HaveLen(2))
	})

	It("treats email as case-sensitive", func() {
		Expect(repo.Create(ctx, newUser("ada@example.com"))).To(Succeed())
		Expect(repo.Create(ctx, newUser("Ada@example.com"))).To(Succeed())

		_, err := repo.GetByEmail(ctx, "ADA@example.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("admits exactly one of many concurrent registrations for an email", func() {
		const workers = 8
		var (
			wg         sync.WaitGroup
			mu         sync.Mutex
			created    int
			duplicates int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				err := repo.Create(ctx, newUser("race@example.com"))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case errors.Is(err, auth.ErrDuplicateEmail):
					duplicates++
				default:
					Fail(err.Error())
				}
			}()
		}
		wg.Wait()

		Expect(created).To(Equal(1))
		Expect(duplicates).To(Equal(workers - 1))
	})

	It("keeps every concurrent session append", func() {
		user := newUser("busy@example.com")
		Expect(repo.Create(ctx, user)).To(Succeed())

		const logins = 20
		var wg sync.WaitGroup
		for i := range logins {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				Expect(repo.AppendSession(ctx, user.ID, auth.Session{
					Token:   fmt.Sprintf("concurrent-%d", i),
					Purpose: auth.SessionPurposeAuth,
				})).To(Succeed())
			}()
		}
		wg.Wait()

		stored, err := repo.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Sessions).To(HaveLen(logins))
	})

	It("rejects sessions for unknown users", func() {
		err := repo.AppendSession(ctx, newUser("ghost@example.com").ID, auth.Session{Token: "x", Purpose: "auth"})
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
