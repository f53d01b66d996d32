package homeassistant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/adconfigurator/api/pkg/cache"
	"github.com/adconfigurator/api/pkg/homeassistant"
)

const statesBody = `[
  {"entity_id": "light.kitchen", "state": "on", "attributes": {"friendly_name": "Kitchen"}},
  {"entity_id": "binary_sensor.hall_motion", "state": "off", "attributes": {}},
  {"entity_id": "light.porch", "state": "off", "attributes": {"friendly_name": "Porch"}}
]`

const servicesBody = `[
  {"domain": "light", "services": {"turn_on": {"name": "Turn on"}}},
  {"domain": "notify", "services": {
    "mobile_app_pixel": {},
    "send_message": {"name": "Send a message"},
    "family": {"description": "All phones"}
  }}
]`

type fakeHA struct {
	server   *httptest.Server
	requests atomic.Int32
	auth     atomic.Value
	status   atomic.Int32
}

func newFakeHA() *fakeHA {
	f := &fakeHA{}
	f.status.Store(http.StatusOK)
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.auth.Store(r.Header.Get("Authorization"))
		if status := int(f.status.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		switch r.URL.Path {
		case "/api/states":
			_, _ = w.Write([]byte(statesBody))
		case "/api/services":
			_, _ = w.Write([]byte(servicesBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	DeferCleanup(f.server.Close)
	return f
}

var _ = Describe("Client", func() {
	var (
		ctx context.Context
		ha  *fakeHA
	)

	BeforeEach(func() {
		ctx = context.Background()
		ha = newFakeHA()
	})

	It("should strip quotes and a trailing slash from its settings", func() {
		client := homeassistant.NewClient(`"`+ha.server.URL+`/"`, `'token'`)
		Expect(client.BaseURL()).To(Equal(ha.server.URL))

		_, err := client.ListEntities(ctx, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(ha.auth.Load()).To(Equal("Bearer token"))
	})

	Describe("ListEntities", func() {
		It("should map every entity when no domain is given", func() {
			entities, err := homeassistant.NewClient(ha.server.URL, "t").ListEntities(ctx, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(entities).To(Equal([]homeassistant.Entity{
				{Value: "light.kitchen", Label: "Kitchen", Domain: "light"},
				{Value: "binary_sensor.hall_motion", Label: "binary_sensor.hall_motion", Domain: "binary_sensor"},
				{Value: "light.porch", Label: "Porch", Domain: "light"},
			}))
		})

		It("should filter by domain", func() {
			entities, err := homeassistant.NewClient(ha.server.URL, "t").ListEntities(ctx, []string{"binary_sensor", " "})
			Expect(err).ToNot(HaveOccurred())
			Expect(entities).To(HaveLen(1))
			Expect(entities[0].Value).To(Equal("binary_sensor.hall_motion"))
		})

		It("should surface API failures", func() {
			ha.status.Store(http.StatusUnauthorized)
			_, err := homeassistant.NewClient(ha.server.URL, "bad").ListEntities(ctx, nil)

			var apiErr *homeassistant.APIError
			Expect(err).To(BeAssignableToTypeOf(apiErr))
			Expect(err.(*homeassistant.APIError).StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should surface connection failures", func() {
			ha.server.Close()
			_, err := homeassistant.NewClient(ha.server.URL, "t").ListEntities(ctx, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListNotificationServices", func() {
		It("should return notify services sorted by label", func() {
			services, err := homeassistant.NewClient(ha.server.URL, "t").ListNotificationServices(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(services).To(Equal([]homeassistant.NotifyService{
				{Value: "notify.family", Label: "All phones"},
				{Value: "notify.mobile_app_pixel", Label: "Mobile App Pixel"},
				{Value: "notify.send_message", Label: "Send a message"},
			}))
		})
	})

	Describe("caching", func() {
		It("should serve repeated calls from the cache", func() {
			store := cache.NewMemoryCache(0)
			DeferCleanup(store.Close)
			client := homeassistant.NewClient(ha.server.URL, "t", homeassistant.WithCache(store, time.Minute))

			first, err := client.ListEntities(ctx, []string{"light"})
			Expect(err).ToNot(HaveOccurred())
			second, err := client.ListEntities(ctx, []string{"binary_sensor"})
			Expect(err).ToNot(HaveOccurred())

			Expect(first).To(HaveLen(2))
			Expect(second).To(HaveLen(1))
			Expect(ha.requests.Load()).To(BeEquivalentTo(1))
		})

		It("should not share entries between tokens", func() {
			store := cache.NewMemoryCache(0)
			DeferCleanup(store.Close)
			factory := homeassistant.NewFactory(store, time.Minute)

			_, err := factory.New(ha.server.URL, "one").ListNotificationServices(ctx)
			Expect(err).ToNot(HaveOccurred())
			_, err = factory.New(ha.server.URL, "two").ListNotificationServices(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(ha.requests.Load()).To(BeEquivalentTo(2))
		})
	})
})

var _ = DescribeTable("ServiceLabel",
	func(name, label string) {
		Expect(homeassistant.ServiceLabel(name)).To(Equal(label))
	},
	Entry("single word", "family", "Family"),
	Entry("snake case", "mobile_app_pixel_7", "Mobile App Pixel 7"),
)

var _ = DescribeTable("EntityDomain",
	func(id, domain string) {
		Expect(homeassistant.EntityDomain(id)).To(Equal(domain))
	},
	Entry("regular id", "light.kitchen", "light"),
	Entry("no dot", "weird", "weird"),
)
