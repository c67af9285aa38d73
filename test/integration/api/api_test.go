// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

//go:build integration

package api_test

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/holotask/internal/web"
)

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, ulid.Make().String())
}

var _ = Describe("Users", func() {
	It("keeps every login session valid until it is logged out", func() {
		email := uniqueEmail("multi")
		_, first := registerUser(email)

		resp, _ := call(http.MethodPost, "/users/login", "", map[string]string{
			"email": email, "password": "hunter22",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		second := resp.Header.Get(web.AuthHeader)
		Expect(second).NotTo(Equal(first))

		resp, _ = call(http.MethodDelete, "/users/me/token", second, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, _ = call(http.MethodGet, "/users/me", second, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

		resp, data := call(http.MethodGet, "/users/me", first, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(decode[userBody](data).Email).To(Equal(email))
	})

	It("admits exactly one of many concurrent registrations for an email", func() {
		email := uniqueEmail("race")
		const n = 8

		var wg sync.WaitGroup
		statuses := make(chan int, n)
		for range n {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				resp, _ := call(http.MethodPost, "/users", "", map[string]string{
					"email": email, "password": "hunter22",
				})
				statuses <- resp.StatusCode
			}()
		}
		wg.Wait()
		close(statuses)

		counts := map[int]int{}
		for s := range statuses {
			counts[s]++
		}
		Expect(counts).To(Equal(map[int]int{http.StatusOK: 1, http.StatusBadRequest: n - 1}))
	})

	It("records every concurrent login as its own session", func() {
		email := uniqueEmail("logins")
		registerUser(email)
		const n = 6

		var wg sync.WaitGroup
		tokens := make(chan string, n)
		for range n {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				resp, _ := call(http.MethodPost, "/users/login", "", map[string]string{
					"email": email, "password": "hunter22",
				})
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				tokens <- resp.Header.Get(web.AuthHeader)
			}()
		}
		wg.Wait()
		close(tokens)

		for token := range tokens {
			resp, _ := call(http.MethodGet, "/users/me", token, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		}
	})
})

var _ = Describe("Todos", func() {
	var token string

	BeforeEach(func() {
		_, token = registerUser(uniqueEmail("todos"))
	})

	It("runs the full lifecycle of a task", func() {
		resp, data := call(http.MethodPost, "/todos", token, map[string]string{"text": "  buy milk "})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		created := decode[taskBody](data)
		Expect(created.Text).To(Equal("buy milk"))
		Expect(created.Completed).To(BeFalse())
		Expect(created.CompletedAt).To(BeNil())

		resp, data = call(http.MethodPatch, "/todos/"+created.ID, token, map[string]any{"completed": true})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		done := decode[struct{ Todo taskBody }](data).Todo
		Expect(done.Completed).To(BeTrue())
		Expect(done.CompletedAt).NotTo(BeNil())

		resp, data = call(http.MethodPatch, "/todos/"+created.ID, token, map[string]any{"completed": false})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(decode[struct{ Todo taskBody }](data).Todo.CompletedAt).To(BeNil())

		resp, _ = call(http.MethodDelete, "/todos/"+created.ID, token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, _ = call(http.MethodGet, "/todos/"+created.ID, token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("hides one user's tasks from another", func() {
		resp, data := call(http.MethodPost, "/todos", token, map[string]string{"text": "private"})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		id := decode[taskBody](data).ID

		_, other := registerUser(uniqueEmail("other"))

		resp, data = call(http.MethodGet, "/todos", other, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(decode[struct{ Todos []taskBody }](data).Todos).To(BeEmpty())

		for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
			var body any
			if method == http.MethodPatch {
				body = map[string]string{"text": "stolen"}
			}
			resp, _ = call(method, "/todos/"+id, other, body)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound), method)
		}

		resp, data = call(http.MethodGet, "/todos/"+id, token, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(decode[struct{ Todo taskBody }](data).Todo.Text).To(Equal("private"))
	})
})

var _ = Describe("Health", func() {
	It("reports ok while the database answers", func() {
		resp, data := call(http.MethodGet, "/healthz", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(data)).To(ContainSubstring(`"status":"ok"`))
	})
})
