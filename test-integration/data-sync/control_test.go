package integration

import (
	"encoding/json"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/data-sync/internal/status"
	"github.com/stacklok/data-sync/test-integration/data-sync/helpers"
)

var _ = Describe("Control Surface", Label("control"), func() {
	var (
		tempDir      string
		tree         *helpers.Tree
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("control-test-")
		tree = helpers.NewTree(tempDir)
		tree.WriteRuleDocument("common.json", helpers.RuleDocument{
			Files: []helpers.RuleEntry{
				{
					Path:            tree.WriteSource("srcFile1", "one"),
					DestinationPath: tree.DstPath("srcFile1"),
					SyncDirection:   "Bidirectional",
					SyncType:        "Immediate",
				},
				{
					Path:            tree.WriteSource("srcFile2", "two"),
					DestinationPath: tree.DstPath("srcFile2"),
					SyncDirection:   "Passive2Active",
					SyncType:        "Immediate",
				},
			},
		})
	})

	AfterEach(func() {
		if serverHelper != nil {
			Expect(serverHelper.StopServer()).To(Succeed())
			serverHelper = nil
		}
		cleanupTempDir(tempDir)
	})

	start := func(facts helpers.Facts) {
		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, tree.WriteConfigYAML(facts))
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	}

	Context("with a reachable sibling", func() {
		BeforeEach(func() {
			start(helpers.Facts{Role: "Active", Enabled: false, SiblingAddress: "127.0.0.2"})
		})

		It("runs an on-demand full sync", func() {
			Expect(serverHelper.GetFullSyncStatus()).To(Equal(status.FullSyncNotStarted))

			resp, err := serverHelper.StartFullSync()
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			serverHelper.WaitForFullSyncStatus(status.FullSyncCompleted, 10*time.Second)
			Expect(tree.ReadDestination("srcFile1")).To(Equal("one"))
			_, err = tree.ReadDestination("srcFile2")
			Expect(err).To(HaveOccurred())
		})

		It("reports no last run before the first full sync", func() {
			resp, err := serverHelper.GetLastRun()
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("lists the rules with their eligibility", func() {
			resp, err := serverHelper.GetRules()
			Expect(err).NotTo(HaveOccurred())
			defer func() {
				_ = resp.Body.Close()
			}()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Rules []struct {
					Path     string `json:"path"`
					Eligible bool   `json:"eligible"`
				} `json:"rules"`
				Total int `json:"total"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body.Total).To(Equal(2))
			Expect(body.Rules[0].Eligible).To(BeTrue())
			Expect(body.Rules[1].Eligible).To(BeFalse())
		})

		It("treats the status as read-only", func() {
			resp, err := serverHelper.SetFullSyncStatus("NotStarted")
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, err = serverHelper.SetFullSyncStatus("Completed")
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))

			resp, err = serverHelper.SetFullSyncStatus("Done")
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			Expect(serverHelper.GetFullSyncStatus()).To(Equal(status.FullSyncNotStarted))
		})
	})

	Context("without a sibling", func() {
		BeforeEach(func() {
			start(helpers.Facts{Role: "Active", Enabled: false})
		})

		It("rejects an on-demand full sync", func() {
			resp, err := serverHelper.StartFullSync()
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
			Expect(serverHelper.GetFullSyncStatus()).To(Equal(status.FullSyncNotStarted))
		})
	})
})
