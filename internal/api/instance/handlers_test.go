package instance_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"github.com/adconfigurator/api/internal/api/common"
	"github.com/adconfigurator/api/internal/api/instance"
	"github.com/adconfigurator/api/internal/middleware"
	"github.com/adconfigurator/api/pkg/apps"
	"github.com/adconfigurator/api/pkg/blueprint"
	"github.com/adconfigurator/api/pkg/settings"
)

const motionLightBlueprint = `
blueprint:
  name: Motion Light
  domain: automation
input:
  motion_sensor:
    name: Motion sensor
    selector: {entity: {domain: binary_sensor}}
  brightness:
    name: Brightness
    selector: {number: {min: 0, max: 255}}
  notify_target:
    name: Notify
    selector: {notify: {}}
  enabled:
    name: Enabled
    selector: {boolean: {}}
`

// mockStore mocks the Store interface
type mockStore struct {
	mock.Mock
}

func (m *mockStore) List(appsPath string) ([]apps.Summary, error) {
	args := m.Called(appsPath)
	return args.Get(0).([]apps.Summary), args.Error(1)
}

func (m *mockStore) Get(appsPath, id string) (*apps.Instance, error) {
	args := m.Called(appsPath, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apps.Instance), args.Error(1)
}

func (m *mockStore) IDs(appsPath string) ([]string, error) {
	args := m.Called(appsPath)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockStore) Create(appsPath, id, module, class string, config map[string]interface{}, meta apps.Meta) (*apps.Instance, error) {
	args := m.Called(appsPath, id, module, class, config, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apps.Instance), args.Error(1)
}

func (m *mockStore) Update(appsPath, id string, config map[string]interface{}, opts apps.UpdateOptions) (*apps.Instance, error) {
	args := m.Called(appsPath, id, config, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apps.Instance), args.Error(1)
}

func (m *mockStore) Delete(appsPath, id string) error {
	return m.Called(appsPath, id).Error(0)
}

// mockBlueprints mocks apps.BlueprintGetter
type mockBlueprints struct {
	mock.Mock
}

func (m *mockBlueprints) Get(appsPath, id string) (*blueprint.Definition, error) {
	args := m.Called(appsPath, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blueprint.Definition), args.Error(1)
}

type resolverStub struct{ s *settings.Settings }

func (r resolverStub) Resolve(context.Context, []*http.Cookie) (*settings.Settings, error) {
	return r.s, nil
}

func newServer(store instance.Store, blueprints apps.BlueprintGetter, s *settings.Settings) *echo.Echo {
	e := echo.New()
	e.Validator = common.NewValidator()
	g := e.Group("/api/instances", middleware.SettingsMiddleware(resolverStub{s}))
	instance.RegisterRoutes(g, instance.NewHandler(store, blueprints))
	return e
}

func do(e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).ToNot(HaveOccurred())
		reader = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decode(rec *httptest.ResponseRecorder, data interface{}) envelope {
	var env envelope
	Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())
	if data != nil {
		Expect(json.Unmarshal(env.Data, data)).To(Succeed())
	}
	return env
}

var _ = Describe("Instance handlers", func() {
	var (
		store      *mockStore
		blueprints *mockBlueprints
		def        *blueprint.Definition
		e          *echo.Echo
	)

	BeforeEach(func() {
		store = new(mockStore)
		blueprints = new(mockBlueprints)
		var err error
		def, err = blueprint.Parse([]byte(motionLightBlueprint))
		Expect(err).ToNot(HaveOccurred())
		e = newServer(store, blueprints, &settings.Settings{AppsPath: "/apps", Categories: []string{"Lighting"}})
	})

	AfterEach(func() {
		store.AssertExpectations(GinkgoT())
		blueprints.AssertExpectations(GinkgoT())
	})

	Describe("GET /instances", func() {
		It("should ask for settings when no apps folder is configured", func() {
			e = newServer(store, blueprints, nil)
			rec := do(e, http.MethodGet, "/api/instances", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var list common.InstanceListResponse
			decode(rec, &list)
			Expect(list.NeedsSettings).To(BeTrue())
			Expect(list.Instances).To(BeEmpty())
		})

		It("should list instances with the configured categories", func() {
			store.On("List", "/apps").Return([]apps.Summary{{ID: "living_room", Module: "motion_light", Class: "MotionLight"}}, nil)

			var list common.InstanceListResponse
			decode(do(e, http.MethodGet, "/api/instances", nil), &list)
			Expect(list.NeedsSettings).To(BeFalse())
			Expect(list.Instances).To(HaveLen(1))
			Expect(list.Categories).To(Equal([]string{"Lighting"}))
		})

		It("should answer 500 when apps.yaml cannot be read", func() {
			store.On("List", "/apps").Return([]apps.Summary(nil), errors.New("failed to parse apps.yaml"))
			Expect(do(e, http.MethodGet, "/api/instances", nil).Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("GET /instances/:id", func() {
		It("should require an apps folder", func() {
			e = newServer(store, blueprints, &settings.Settings{})
			Expect(do(e, http.MethodGet, "/api/instances/x", nil).Code).To(Equal(http.StatusBadRequest))
		})

		It("should answer 404 for a missing instance", func() {
			store.On("Get", "/apps", "missing").Return(nil, nil)
			Expect(do(e, http.MethodGet, "/api/instances/missing", nil).Code).To(Equal(http.StatusNotFound))
		})

		It("should include the blueprint", func() {
			store.On("Get", "/apps", "living_room").Return(&apps.Instance{
				ID: "living_room", Module: "motion_light", Class: "MotionLight", BlueprintID: "motion-light",
				Config: map[string]interface{}{"brightness": 128},
			}, nil)
			blueprints.On("Get", "/apps", "motion-light").Return(def, nil)

			var body struct {
				Instance  apps.Instance `json:"instance"`
				Blueprint struct {
					Blueprint blueprint.Metadata `json:"blueprint"`
				} `json:"blueprint"`
			}
			decode(do(e, http.MethodGet, "/api/instances/living_room", nil), &body)
			Expect(body.Instance.ID).To(Equal("living_room"))
			Expect(body.Blueprint.Blueprint.Name).To(Equal("Motion Light"))
		})
	})

	Describe("POST /instances", func() {
		It("should type values and generate an id", func() {
			blueprints.On("Get", "/apps", "motion-light").Return(def, nil)
			store.On("IDs", "/apps").Return([]string{"motion_light"}, nil)
			store.On("Create", "/apps", "motion_light_2", "motion_light", "MotionLight",
				map[string]interface{}{"brightness": 128, "enabled": true, "notify_target": "notify.phone"},
				apps.Meta{
					BlueprintID: "motion-light",
					Order:       []string{"motion_sensor", "brightness", "notify_target", "enabled"},
				}).
				Return(&apps.Instance{ID: "motion_light_2", Module: "motion_light", Class: "MotionLight"}, nil)

			rec := do(e, http.MethodPost, "/api/instances", map[string]interface{}{
				"blueprintId": "motion-light",
				"config": map[string]interface{}{
					"brightness":    `"128"`,
					"enabled":       "on",
					"notify_target": "notify.phone",
				},
			})
			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(decode(rec, nil).Message).To(ContainSubstring("motion_light_2"))
		})

		It("should answer 409 for a taken id", func() {
			blueprints.On("Get", "/apps", "motion-light").Return(def, nil)
			store.On("Create", "/apps", "kitchen", "motion_light", "MotionLight", mock.Anything, mock.Anything).
				Return(nil, fmt.Errorf("%w: %q", apps.ErrDuplicateIdentifier, "kitchen"))

			rec := do(e, http.MethodPost, "/api/instances", map[string]interface{}{
				"blueprintId":  "motion-light",
				"instanceName": "kitchen",
			})
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})

		It("should reject invalid instance names", func() {
			rec := do(e, http.MethodPost, "/api/instances", map[string]interface{}{
				"blueprintId":  "motion-light",
				"instanceName": "Not Valid",
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should require a blueprint id", func() {
			Expect(do(e, http.MethodPost, "/api/instances", map[string]interface{}{}).Code).To(Equal(http.StatusBadRequest))
		})

		It("should answer 404 for an unknown blueprint", func() {
			blueprints.On("Get", "/apps", "nope").Return(nil, nil)
			rec := do(e, http.MethodPost, "/api/instances", map[string]interface{}{"blueprintId": "nope"})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("PUT /instances/:id", func() {
		It("should pass values through when the blueprint is gone", func() {
			store.On("Get", "/apps", "legacy").Return(&apps.Instance{
				ID: "legacy", Module: "m", Class: "M", BlueprintID: "removed",
			}, nil)
			blueprints.On("Get", "/apps", "removed").Return(nil, nil)
			store.On("Update", "/apps", "legacy", map[string]interface{}{"brightness": "128"}, apps.UpdateOptions{NewID: "renamed"}).
				Return(&apps.Instance{ID: "renamed"}, nil)

			rec := do(e, http.MethodPut, "/api/instances/legacy", map[string]interface{}{
				"config":        map[string]interface{}{"brightness": `'128'`},
				"newInstanceId": "renamed",
			})
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should answer 409 when renaming onto an existing id", func() {
			store.On("Get", "/apps", "a").Return(&apps.Instance{ID: "a", Module: "m", Class: "M"}, nil)
			store.On("Update", "/apps", "a", mock.Anything, mock.Anything).
				Return(nil, apps.ErrDuplicateIdentifier)

			rec := do(e, http.MethodPut, "/api/instances/a", map[string]interface{}{"newInstanceId": "b"})
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})

		It("should answer 404 for a missing instance", func() {
			store.On("Get", "/apps", "missing").Return(nil, nil)
			Expect(do(e, http.MethodPut, "/api/instances/missing", map[string]interface{}{}).Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("DELETE /instances/:id", func() {
		It("should map a missing instance to 404", func() {
			store.On("Delete", "/apps", "missing").Return(fmt.Errorf("%w: %q", apps.ErrNotFound, "missing"))
			Expect(do(e, http.MethodDelete, "/api/instances/missing", nil).Code).To(Equal(http.StatusNotFound))
		})

		It("should delete", func() {
			store.On("Delete", "/apps", "living_room").Return(nil)
			Expect(do(e, http.MethodDelete, "/api/instances/living_room", nil).Code).To(Equal(http.StatusOK))
		})
	})

	Describe("POST /instances/preview", func() {
		It("should render the YAML a create would write", func() {
			blueprints.On("Get", "/apps", "motion-light").Return(def, nil)
			store.On("IDs", "/apps").Return([]string{}, nil)

			var preview common.PreviewResponse
			rec := do(e, http.MethodPost, "/api/instances/preview", map[string]interface{}{
				"blueprintId": "motion-light",
				"config":      map[string]interface{}{"brightness": "64", "enabled": "false"},
			})
			Expect(rec.Code).To(Equal(http.StatusOK))
			decode(rec, &preview)
			Expect(preview.InstanceID).To(Equal("motion_light"))
			Expect(preview.YAML).To(Equal(`motion_light:
  module: motion_light
  class: MotionLight
  _blueprint: motion-light
  brightness: 64
  enabled: false
`))
		})
	})
})

var _ = Describe("Saving through the HTTP surface", func() {
	It("should store the motion light scenario in apps.yaml", func() {
		appsDir, err := os.MkdirTemp("", "apps-*")
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(os.RemoveAll, appsDir)
		Expect(os.MkdirAll(filepath.Join(appsDir, "motion-light"), 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(appsDir, "motion-light", "blueprint.yaml"), []byte(motionLightBlueprint), 0644)).To(Succeed())

		repo := blueprint.NewRepository("")
		e := newServer(apps.NewStore(repo), repo, &settings.Settings{AppsPath: appsDir})

		rec := do(e, http.MethodPost, "/api/instances", map[string]interface{}{
			"blueprintId":  "motion-light",
			"instanceName": "living_room",
			"config": map[string]interface{}{
				"motion_sensor": "binary_sensor.hall",
				"brightness":    "128",
				"notify_target": "notify.phone",
				"enabled":       "on",
			},
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))

		content, err := os.ReadFile(filepath.Join(appsDir, "apps.yaml"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal(`living_room:
  module: motion_light
  class: MotionLight
  _blueprint: motion-light
  motion_sensor: binary_sensor.hall
  brightness: 128
  notify_target: notify.phone
  enabled: true
`))

		var detail struct {
			Instance apps.Instance `json:"instance"`
		}
		decode(do(e, http.MethodGet, "/api/instances/living_room", nil), &detail)
		Expect(detail.Instance.Config).To(HaveKeyWithValue("brightness", BeNumerically("==", 128)))
		Expect(detail.Instance.Config).To(HaveKeyWithValue("enabled", true))
	})
})
