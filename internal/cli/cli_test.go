package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	repository "github.com/okian/teamforge/internal/adapters/repository"
	service "github.com/okian/teamforge/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

// executeCommand runs a fresh command tree with args and returns captured
// stdout and stderr.
func executeCommand(args ...string) (string, string, error) {
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func fixture(dir, name, content string) {
	So(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600), ShouldBeNil)
}

func workshopDir(t *testing.T) (string, string) {
	dir := t.TempDir()
	fixture(dir, "participant-assignments.csv",
		"UserNumber,RealFullName,RealAlias,RealEmail,Team,Country,Role\n"+
			"1,Ana Silva,ANASILVA,ana@example.com,7,Portugal,Participant\n"+
			"2,Bo Chen,BOCHEN,bo@example.com,7,Taiwan,Participant\n"+
			"3,Cy Dunn,CYDUNN,cy@example.com,8,Ireland,Participant\n"+
			"4,Zed Proc,ZEDPROC,zed@example.com,0,Spain,Proctor\n")
	fixture(dir, "challenge-survey-responses.csv",
		"Email,ChallengeLevel\nana@example.com,Advanced\nbo@example.com,Beginner\n")
	fixture(dir, "workshop-user-mapping.csv",
		"UserNumber,RealFullName,RealAlias,RealEmail,Team,Country,Role,ChallengeLevel,FictitiousFullName\n"+
			"1,Ana Silva,ANASILVA,ana@example.com,7,Portugal,Participant,,\n"+
			"2,Bo Chen,BOCHEN,bo@example.com,7,Taiwan,Participant,,\n")
	fixture(dir, "pool.csv",
		"FirstName,LastName,FullName,Gender,Language\nMaja,Lind,Maja Lind,F,sv\nAda,Okafor,Ada Okafor,F,en\nLi,Wei,Li Wei,M,zh\n")

	cfgPath := filepath.Join(dir, "teamforge.yaml")
	fixture(dir, "teamforge.yaml", strings.Join([]string{
		"data_dir: " + dir,
		"advanced_teams: 1",
		"mixed_teams: 2",
		"seed: 7",
		"proctors_file: \"\"",
		"name_pool_files: [pool.csv]",
		"principal_domain: tenant.example.com",
		"metrics_file: teamforge.prom",
	}, "\n"))
	return dir, cfgPath
}

func TestRootCommand(t *testing.T) {
	Convey("Given the root command", t, func() {
		root := NewRootCommand()

		Convey("Then it should expose the workshop commands", func() {
			So(root.Use, ShouldEqual, "teamforge")
			names := map[string]bool{}
			for _, c := range root.Commands() {
				names[c.Name()] = true
			}
			So(names["assign"], ShouldBeTrue)
			So(names["sync-mapping"], ShouldBeTrue)
			So(names["add-participant"], ShouldBeTrue)
			So(names["generate-sample"], ShouldBeTrue)
			So(root.PersistentFlags().Lookup("config"), ShouldNotBeNil)
		})
	})
}

func TestAssignCommand(t *testing.T) {
	Convey("Given a workshop directory and a config file", t, func() {
		dir, cfgPath := workshopDir(t)

		Convey("When running assign", func() {
			out, logs, err := executeCommand("assign", "--config", cfgPath)

			Convey("Then teams, report, logs and metrics should be produced", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "=== WORKSHOP TEAM ASSIGNMENTS ===")
				So(out, ShouldContainSubstring, "Total Participants: 3")
				So(logs, ShouldContainSubstring, "run_id=")

				teams, readErr := os.ReadFile(filepath.Join(dir, "teams-final.csv"))
				So(readErr, ShouldBeNil)
				So(string(teams), ShouldContainSubstring, "ana@example.com")
				So(string(teams), ShouldNotContainSubstring, "zed@example.com")

				prom, readErr := os.ReadFile(filepath.Join(dir, "teamforge.prom"))
				So(readErr, ShouldBeNil)
				So(string(prom), ShouldContainSubstring, "teamforge_workshop_runs_total")
				So(string(prom), ShouldContainSubstring, `command="assign"`)
			})
		})

		Convey("When the roster is missing", func() {
			So(os.Remove(filepath.Join(dir, "participant-assignments.csv")), ShouldBeNil)
			_, _, err := executeCommand("assign", "--config", cfgPath)

			Convey("Then it should fail with missing input", func() {
				So(errors.Is(err, repository.ErrMissingInput), ShouldBeTrue)
			})
		})

		Convey("When the config file does not exist", func() {
			_, _, err := executeCommand("assign", "--config", filepath.Join(dir, "nope.yaml"))

			Convey("Then it should fail before touching any file", func() {
				So(err, ShouldNotBeNil)
				_, statErr := os.Stat(filepath.Join(dir, "teams-final.csv"))
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})
	})
}

func TestMappingCommands(t *testing.T) {
	Convey("Given a workshop with assigned teams", t, func() {
		dir, cfgPath := workshopDir(t)
		_, _, err := executeCommand("assign", "--config", cfgPath)
		So(err, ShouldBeNil)

		Convey("When syncing the mapping", func() {
			out, _, err := executeCommand("sync-mapping", "--config", cfgPath)

			Convey("Then every mapped user should get a team and a pseudonym", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "New names assigned: 2")
				data, readErr := os.ReadFile(filepath.Join(dir, "workshop-user-mapping.csv"))
				So(readErr, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"MajaL@tenant.example.com"`)
				So(string(data), ShouldContainSubstring, `"Advanced"`)
			})
		})

		Convey("When adding a late auditor", func() {
			out, _, err := executeCommand("add-participant", "--config", cfgPath,
				"--name", "Yara Chia", "--email", "yara@example.com", "--role", "Auditor", "--level", "Beginner")

			Convey("Then the auditor should be appended with the next user number", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "User 3: Yara Chia")
				So(out, ShouldContainSubstring, "Auditors: 1")
			})
		})

		Convey("When adding with an unknown level", func() {
			_, _, err := executeCommand("add-participant", "--config", cfgPath,
				"--name", "Jo", "--email", "jo@example.com", "--level", "expert")

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrInvalidEntry), ShouldBeTrue)
			})
		})

		Convey("When required flags are missing", func() {
			_, _, err := executeCommand("add-participant", "--config", cfgPath, "--name", "Jo")

			Convey("Then cobra should refuse to run", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "email")
			})
		})
	})
}

func TestGenerateSampleCommand(t *testing.T) {
	Convey("Given a config pointing at a workshop directory", t, func() {
		dir, cfgPath := workshopDir(t)

		Convey("When generating a sample and assigning it", func() {
			out, _, err := executeCommand("generate-sample", "--config", cfgPath, "--participants", "30", "--proctors", "2", "--auditors", "0")
			So(err, ShouldBeNil)
			_, _, assignErr := executeCommand("assign", "--config", cfgPath)

			Convey("Then the generated roster should replace the old one and be assignable", func() {
				So(out, ShouldContainSubstring, "Sample workshop written: 32 people")
				So(assignErr, ShouldBeNil)
				roster, readErr := os.ReadFile(filepath.Join(dir, "participant-assignments.csv"))
				So(readErr, ShouldBeNil)
				So(string(roster), ShouldContainSubstring, "participant030@example.com")
				So(string(roster), ShouldNotContainSubstring, "ana@example.com")
			})
		})
	})
}
