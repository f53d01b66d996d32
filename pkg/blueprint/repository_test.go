package blueprint_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/adconfigurator/api/pkg/blueprint"
	"github.com/adconfigurator/api/pkg/selector"
)

const motionLight = `
blueprint:
  name: Motion Light
  description: Turn on a light when motion is detected
  domain: automation
  author: jane
  input:
    motion_sensor:
      name: Motion sensor
      selector:
        entity:
          domain: binary_sensor
          device_class: motion
    brightness:
      name: Brightness
      default: 200
      selector:
        number: {min: 0, max: 255}
    advanced:
      name: Advanced
      icon: mdi:cog
      input:
        enabled:
          name: Enabled
          selector:
            boolean: {}
        notify_target:
          name: Notify
          selector:
            notify: {}
`

var _ = Describe("Repository", func() {
	var (
		appsDir string
		repo    *blueprint.Repository
	)

	BeforeEach(func() {
		appsDir = newAppsDir()
		repo = blueprint.NewRepository(filepath.Join(appsDir, "fallback"))
	})

	Describe("Get", func() {
		It("should hoist inputs nested under the blueprint key", func() {
			writeBlueprint(appsDir, "motion-light", motionLight)

			def, err := repo.Get(appsDir, "motion-light")
			Expect(err).ToNot(HaveOccurred())
			Expect(def).ToNot(BeNil())
			Expect(def.Blueprint.Name).To(Equal("Motion Light"))
			Expect(def.Blueprint.Domain).To(Equal("automation"))
			Expect(def.Blueprint.Author).To(Equal("jane"))
			Expect(def.Input).To(HaveLen(3))

			brightness, ok := def.Input.Get("brightness")
			Expect(ok).To(BeTrue())
			Expect(brightness.Input.Default).To(Equal(200))
			Expect(brightness.Input.Selector.Kind).To(Equal(selector.KindNumber))

			advanced, ok := def.Input.Get("advanced")
			Expect(ok).To(BeTrue())
			Expect(advanced.IsSection()).To(BeTrue())
			Expect(advanced.Section.Icon).To(Equal("mdi:cog"))
			Expect(advanced.Section.Input).To(HaveLen(2))
		})

		It("should read inputs declared at the document root", func() {
			writeBlueprint(appsDir, "garbage-reminder", `
blueprint:
  name: Garbage Reminder
  description: Remind me
  domain: automation
input:
  day:
    name: Day
    selector:
      select:
        options: [monday, tuesday]
`)
			def, err := repo.Get(appsDir, "garbage-reminder")
			Expect(err).ToNot(HaveOccurred())
			Expect(def.Blueprint.Name).To(Equal("Garbage Reminder"))
			day, ok := def.Input.Get("day")
			Expect(ok).To(BeTrue())
			Expect(day.Input.Selector.Select.Options).To(HaveLen(2))
		})

		It("should keep input declaration order", func() {
			writeBlueprint(appsDir, "motion-light", motionLight)
			def, err := repo.Get(appsDir, "motion-light")
			Expect(err).ToNot(HaveOccurred())
			Expect(blueprint.Keys(def.Input)).To(Equal([]string{"motion_sensor", "brightness", "enabled", "notify_target"}))
		})

		It("should return nil for a missing blueprint", func() {
			def, err := repo.Get(appsDir, "does-not-exist")
			Expect(err).ToNot(HaveOccurred())
			Expect(def).To(BeNil())
		})

		It("should return nil for an unparsable blueprint", func() {
			writeBlueprint(appsDir, "broken", "blueprint: [unterminated")
			def, err := repo.Get(appsDir, "broken")
			Expect(err).ToNot(HaveOccurred())
			Expect(def).To(BeNil())
		})

		It("should return nil for ids that escape the apps folder", func() {
			def, err := repo.Get(appsDir, "../etc")
			Expect(err).ToNot(HaveOccurred())
			Expect(def).To(BeNil())
		})

		It("should read from the fallback directory when no apps folder is given", func() {
			writeBlueprint(filepath.Join(appsDir, "fallback"), "motion-light", motionLight)
			def, err := repo.Get("", "motion-light")
			Expect(err).ToNot(HaveOccurred())
			Expect(def).ToNot(BeNil())
		})
	})

	Describe("List", func() {
		It("should summarize every directory with a blueprint and skip the rest", func() {
			writeBlueprint(appsDir, "motion-light", motionLight)
			writeBlueprint(appsDir, "broken", "blueprint: [unterminated")
			Expect(os.MkdirAll(filepath.Join(appsDir, "plain-app"), 0755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(appsDir, "plain-app", "app.py"), []byte("pass"), 0644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(appsDir, "apps.yaml"), []byte("{}"), 0644)).To(Succeed())

			summaries := repo.List(appsDir)
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0]).To(Equal(blueprint.Summary{
				ID:          "motion-light",
				Name:        "Motion Light",
				Description: "Turn on a light when motion is detected",
				Domain:      "automation",
				Author:      "jane",
				InputCount:  3,
			}))
		})

		It("should sort summaries by id", func() {
			writeBlueprint(appsDir, "zeta", "blueprint: {name: Z}")
			writeBlueprint(appsDir, "alpha", "blueprint: {name: A}")
			summaries := repo.List(appsDir)
			Expect(summaries).To(HaveLen(2))
			Expect(summaries[0].ID).To(Equal("alpha"))
			Expect(summaries[1].ID).To(Equal("zeta"))
			Expect(summaries[0].InputCount).To(BeZero())
		})

		It("should return an empty list for a missing folder", func() {
			summaries := repo.List(filepath.Join(appsDir, "missing"))
			Expect(summaries).ToNot(BeNil())
			Expect(summaries).To(BeEmpty())
		})
	})
})
