// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/holotask/internal/auth"
	authpg "github.com/holomush/holotask/internal/auth/postgres"
	"github.com/holomush/holotask/internal/task"
	"github.com/holomush/holotask/internal/task/postgres"
)

var _ = Describe("TaskRepository", func() {
	var (
		ctx   context.Context
		svc   *task.Service
		alice *auth.User
		bob   *auth.User
		clock time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		_, err := testPool.Exec(ctx, `TRUNCATE users CASCADE`)
		Expect(err).NotTo(HaveOccurred())

		users := authpg.NewUserRepository(testPool)
		alice, err = auth.NewUser("alice@example.com", "hash")
		Expect(err).NotTo(HaveOccurred())
		bob, err = auth.NewUser("bob@example.com", "hash")
		Expect(err).NotTo(HaveOccurred())
		Expect(users.Create(ctx, alice)).To(Succeed())
		Expect(users.Create(ctx, bob)).To(Succeed())

		clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc, err = task.NewService(postgres.NewTaskRepository(testPool), task.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}))
		Expect(err).NotTo(HaveOccurred())
	})

	It("applies the completion rule in storage", func() {
		created, err := svc.Create(ctx, alice.ID, "buy milk")
		Expect(err).NotTo(HaveOccurred())
		id := created.ID.String()

		done := true
		first, err := svc.UpdateOwned(ctx, alice.ID, id, task.Patch{Completed: &done})
		Expect(err).NotTo(HaveOccurred())
		Expect(first.CompletedAt).NotTo(BeNil())

		second, err := svc.UpdateOwned(ctx, alice.ID, id, task.Patch{Completed: &done})
		Expect(err).NotTo(HaveOccurred())
		Expect(second.CompletedAt.After(*first.CompletedAt)).To(BeTrue())

		text := "buy oat milk"
		renamed, err := svc.UpdateOwned(ctx, alice.ID, id, task.Patch{Text: &text})
		Expect(err).NotTo(HaveOccurred())
		Expect(renamed.Text).To(Equal("buy oat milk"))
		Expect(renamed.CompletedAt.Equal(*second.CompletedAt)).To(BeTrue())

		undone := false
		cleared, err := svc.UpdateOwned(ctx, alice.ID, id, task.Patch{Completed: &undone})
		Expect(err).NotTo(HaveOccurred())
		Expect(cleared.Completed).To(BeFalse())
		Expect(cleared.CompletedAt).To(BeNil())
	})

	It("never lets another owner read or write", func() {
		created, err := svc.Create(ctx, alice.ID, "private")
		Expect(err).NotTo(HaveOccurred())
		id := created.ID.String()

		_, err = svc.GetOwned(ctx, bob.ID, id)
		Expect(err).To(HaveOccurred())
		text := "stolen"
		_, err = svc.UpdateOwned(ctx, bob.ID, id, task.Patch{Text: &text})
		Expect(err).To(HaveOccurred())
		_, err = svc.DeleteOwned(ctx, bob.ID, id)
		Expect(err).To(HaveOccurred())

		got, err := svc.GetOwned(ctx, alice.ID, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Text).To(Equal("private"))
	})

	It("lists in creation order and deletes with RETURNING", func() {
		for _, text := range []string{"a", "b", "c"} {
			_, err := svc.Create(ctx, alice.ID, text)
			Expect(err).NotTo(HaveOccurred())
		}
		list, err := svc.ListByOwner(ctx, alice.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(3))
		Expect(list[0].Text).To(Equal("a"))
		Expect(list[2].Text).To(Equal("c"))

		deleted, err := svc.DeleteOwned(ctx, alice.ID, list[1].ID.String())
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted.Text).To(Equal("b"))

		list, err = svc.ListByOwner(ctx, alice.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(2))
	})
})
