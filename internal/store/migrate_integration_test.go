// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

//go:build integration

package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/holotask/internal/store"
	"github.com/holomush/holotask/internal/store/storetest"
)

var _ = Describe("Migrator", func() {
	var (
		ctx     context.Context
		dsn     string
		cleanup func()
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		dsn, cleanup, err = storetest.StartPostgres(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	It("runs the full up/down cycle", func() {
		migrator, err := store.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = migrator.Close() }()

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		Expect(migrator.Up()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))

		pending, err := migrator.Pending()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())

		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})

	It("connects with retry once migrated", func() {
		Expect(storetest.Migrate(dsn)).To(Succeed())

		pool, err := store.Open(ctx, dsn, store.ConnectOptions{})
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		var count int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count)).To(Succeed())
		Expect(count).To(BeZero())
	})
})
