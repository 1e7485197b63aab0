package chat_test

import (
	"time"

	"github.com/legalintel/counsel/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transcript", func() {
	var now time.Time

	BeforeEach(func() {
		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	})

	persisted := func(id, role, content string, at time.Time, seq uint64) chat.Entry {
		return chat.Entry{
			ID:      id,
			Role:    role,
			Content: content,
			Origin:  chat.OriginPersisted,
			Stamp:   chat.ServerStamp(at),
			Status:  chat.StatusComplete,
			Seq:     seq,
		}
	}

	Describe("Merge", func() {
		It("should retire a local entry superseded by a persisted one", func() {
			local := chat.NewUserEntry("hello", chat.ProvisionalStamp(now), 1)
			p := persisted("1", chat.RoleUser, "hello", now.Add(time.Second), 2)

			merged := chat.Merge([]chat.Entry{local}, []chat.Entry{p}, now)

			Expect(merged).To(HaveLen(1))
			Expect(merged[0].Origin).To(Equal(chat.OriginPersisted))
			Expect(merged[0].Content).To(Equal("hello"))
		})

		It("should never leave a gap when retiring", func() {
			local := chat.NewUserEntry("hello", chat.ProvisionalStamp(now), 1)
			p := persisted("1", chat.RoleUser, "hello", now, 2)

			merged := chat.Merge([]chat.Entry{local}, []chat.Entry{p}, now)
			Expect(merged.ContainsEquivalent(chat.RoleUser, "hello")).To(BeTrue())
		})

		It("should keep a streaming local entry even if content coincides", func() {
			local := chat.NewAssistantEntry(chat.ProvisionalStamp(now), 1)
			local.Content = "partial"
			local.Status = chat.StatusStreaming
			p := persisted("1", chat.RoleAssistant, "partial", now, 2)

			merged := chat.Merge([]chat.Entry{local}, []chat.Entry{p}, now)
			Expect(merged).To(HaveLen(2))
		})

		It("should never retire a failed local entry", func() {
			local := chat.NewAssistantEntry(chat.ProvisionalStamp(now), 1)
			local.Content = "notice"
			local.Status = chat.StatusFailed
			p := persisted("1", chat.RoleAssistant, "notice", now, 2)

			merged := chat.Merge([]chat.Entry{local}, []chat.Entry{p}, now)
			Expect(merged).To(HaveLen(2))
		})

		It("should deduplicate persisted records by ID", func() {
			p := persisted("1", chat.RoleUser, "hello", now, 1)

			merged := chat.Merge(nil, []chat.Entry{p, p}, now)
			Expect(merged).To(HaveLen(1))
		})

		It("should keep legitimate persisted duplicates with distinct IDs", func() {
			a := persisted("1", chat.RoleUser, "hello", now, 1)
			b := persisted("2", chat.RoleUser, "hello", now.Add(time.Minute), 2)

			merged := chat.Merge(nil, []chat.Entry{a, b}, now)
			Expect(merged).To(HaveLen(2))
		})

		It("should be safe with an empty persisted set", func() {
			local := chat.NewUserEntry("hello", chat.ProvisionalStamp(now), 1)

			merged := chat.Merge([]chat.Entry{local}, nil, now)
			Expect(merged).To(HaveLen(1))
			Expect(merged[0].Origin).To(Equal(chat.OriginLocal))
		})

		It("should be idempotent", func() {
			local := chat.NewUserEntry("hello", chat.ProvisionalStamp(now), 1)
			p := persisted("1", chat.RoleUser, "hello", now, 2)

			once := chat.Merge([]chat.Entry{local}, []chat.Entry{p}, now)
			twice := chat.Merge(once, []chat.Entry{p}, now)
			Expect(twice).To(HaveLen(len(once)))
		})
	})

	Describe("SortEntries", func() {
		It("should order by stamp ascending", func() {
			entries := []chat.Entry{
				persisted("2", chat.RoleUser, "second", now.Add(time.Minute), 2),
				persisted("1", chat.RoleUser, "first", now, 1),
			}

			chat.SortEntries(entries, now)
			Expect(entries[0].Content).To(Equal("first"))
			Expect(entries[1].Content).To(Equal("second"))
		})

		It("should place user before assistant on equal stamps", func() {
			entries := []chat.Entry{
				persisted("2", chat.RoleAssistant, "answer", now, 2),
				persisted("1", chat.RoleUser, "question", now, 1),
			}

			chat.SortEntries(entries, now)
			Expect(entries[0].Role).To(Equal(chat.RoleUser))
			Expect(entries[1].Role).To(Equal(chat.RoleAssistant))
		})

		It("should fall back to creation order for full ties", func() {
			entries := []chat.Entry{
				persisted("2", chat.RoleUser, "later", now, 2),
				persisted("1", chat.RoleUser, "earlier", now, 1),
			}

			chat.SortEntries(entries, now)
			Expect(entries[0].Content).To(Equal("earlier"))
		})

		It("should order pending stamps after server stamps in the past", func() {
			inFlight := chat.Entry{
				ID: "x", Role: chat.RoleUser, Content: "in flight",
				Stamp: chat.PendingStamp(), Seq: 2,
			}
			entries := []chat.Entry{
				inFlight,
				persisted("1", chat.RoleUser, "settled", now.Add(-time.Hour), 1),
			}

			chat.SortEntries(entries, now)
			Expect(entries[0].Content).To(Equal("settled"))
		})
	})
})
