package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/data-sync/internal/status"
	"github.com/stacklok/data-sync/test-integration/data-sync/helpers"
)

var _ = Describe("Startup Full Sync", Label("fullsync"), func() {
	var (
		tempDir      string
		tree         *helpers.Tree
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("fullsync-test-")
		tree = helpers.NewTree(tempDir)
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

	Context("on the Active unit", func() {
		BeforeEach(func() {
			files := []string{"srcFile1", "srcFile2", "srcFile3", "srcFile4"}
			doc := helpers.RuleDocument{}
			for _, name := range files {
				doc.Files = append(doc.Files, helpers.RuleEntry{
					Path:            tree.WriteSource(name, "content of "+name),
					DestinationPath: tree.DstPath(name),
					SyncDirection:   "Active2Passive",
					SyncType:        "Immediate",
				})
			}
			tree.WriteSource("srcDir/nested/leaf", "leaf")
			doc.Directories = []helpers.RuleEntry{{
				Path:            tree.SrcPath("srcDir"),
				DestinationPath: tree.DstPath("srcDir"),
				SyncDirection:   "Active2Passive",
				SyncType:        "Periodic",
				// long enough that only the startup sync copies it
				PeriodicityInSec: 3600,
			}}
			tree.WriteRuleDocument("common.json", doc)
		})

		It("copies every Active2Passive rule and completes", func() {
			start(helpers.Facts{Role: "Active", Enabled: true})

			serverHelper.WaitForFullSyncStatus(status.FullSyncCompleted, 10*time.Second)

			for _, name := range []string{"srcFile1", "srcFile2", "srcFile3", "srcFile4"} {
				Expect(tree.ReadDestination(name)).To(Equal("content of " + name))
			}
			Expect(tree.ReadDestination("srcDir/nested/leaf")).To(Equal("leaf"))

			resp, err := serverHelper.GetLastRun()
			Expect(err).NotTo(HaveOccurred())
			defer func() {
				_ = resp.Body.Close()
			}()
			Expect(resp.StatusCode).To(Equal(200))
		})

		It("does not sync at startup when redundancy is disabled", func() {
			start(helpers.Facts{Role: "Active", Enabled: false})

			Consistently(serverHelper.GetFullSyncStatus, 300*time.Millisecond, 50*time.Millisecond).
				Should(Equal(status.FullSyncNotStarted))
			_, err := tree.ReadDestination("srcFile1")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("on the Passive unit", func() {
		BeforeEach(func() {
			tree.WriteRuleDocument("common.json", helpers.RuleDocument{
				Files: []helpers.RuleEntry{
					{
						Path:            tree.WriteSource("fromPassive", "passive data"),
						DestinationPath: tree.DstPath("fromPassive"),
						SyncDirection:   "Passive2Active",
						SyncType:        "Immediate",
					},
					{
						Path:            tree.WriteSource("fromActive", "active data"),
						DestinationPath: tree.DstPath("fromActive"),
						SyncDirection:   "Active2Passive",
						SyncType:        "Immediate",
					},
				},
			})
		})

		It("copies Passive2Active rules and leaves Active2Passive rules untouched", func() {
			start(helpers.Facts{Role: "Passive", Enabled: true})

			serverHelper.WaitForFullSyncStatus(status.FullSyncCompleted, 10*time.Second)

			Expect(tree.ReadDestination("fromPassive")).To(Equal("passive data"))
			_, err := tree.ReadDestination("fromActive")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("when a transfer fails", func() {
		BeforeEach(func() {
			tree.WriteRuleDocument("common.json", helpers.RuleDocument{
				Files: []helpers.RuleEntry{
					{
						Path:            tree.WriteSource("srcFile1", "one"),
						DestinationPath: tree.DstPath("srcFile1"),
						SyncDirection:   "Bidirectional",
						SyncType:        "Immediate",
					},
					{
						Path:            tree.SrcPath("missing"),
						DestinationPath: tree.DstPath("missing"),
						SyncDirection:   "Bidirectional",
						SyncType:        "Immediate",
					},
				},
			})
		})

		It("still runs the other rules and reports Failed", func() {
			start(helpers.Facts{Role: "Active", Enabled: true})

			serverHelper.WaitForFullSyncStatus(status.FullSyncFailed, 10*time.Second)
			Expect(tree.ReadDestination("srcFile1")).To(Equal("one"))
		})
	})

	Context("with an invalid rule document", func() {
		BeforeEach(func() {
			tree.WriteRawRuleDocument("broken.json", `{"Files": [{"Path": "/x", "SyncDirection": "Sideways"`)
			tree.WriteRuleDocument("good.json", helpers.RuleDocument{
				Files: []helpers.RuleEntry{{
					Path:            tree.WriteSource("srcFile1", "one"),
					DestinationPath: tree.DstPath("srcFile1"),
					SyncDirection:   "Active2Passive",
					SyncType:        "Immediate",
				}},
			})
		})

		It("skips the broken document and syncs the rest", func() {
			start(helpers.Facts{Role: "Active", Enabled: true})

			serverHelper.WaitForFullSyncStatus(status.FullSyncCompleted, 10*time.Second)
			Expect(tree.ReadDestination("srcFile1")).To(Equal("one"))
			Expect(serverHelper.App().Components().Rules).To(HaveLen(1))
		})
	})
})
