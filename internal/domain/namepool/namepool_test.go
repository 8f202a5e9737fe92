package namepool_test

import (
	"errors"
	"testing"

	"github.com/okian/teamforge/internal/domain/model"
	"github.com/okian/teamforge/internal/domain/namepool"
	. "github.com/smartystreets/goconvey/convey"
)

func pseudo(first, last string) model.Pseudonym {
	return model.Pseudonym{FirstName: first, LastName: last, FullName: first + " " + last, Gender: "F", Language: "en-US"}
}

func TestPool(t *testing.T) {
	Convey("Given a pool of three names", t, func() {
		pool := namepool.New([]model.Pseudonym{
			pseudo("Maja", "Lind"),
			pseudo("Tomás", "Ruiz"),
			pseudo("Ada", "Okafor"),
		})

		Convey("When one name is already in use", func() {
			pool.MarkUsed("Tomás Ruiz")

			Convey("Then Next skips it", func() {
				first, err := pool.Next()
				So(err, ShouldBeNil)
				So(first.FullName, ShouldEqual, "Maja Lind")

				second, err := pool.Next()
				So(err, ShouldBeNil)
				So(second.FullName, ShouldEqual, "Ada Okafor")

				_, err = pool.Next()
				So(errors.Is(err, namepool.ErrPoolExhausted), ShouldBeTrue)
			})

			Convey("Then Remaining reflects the used name", func() {
				So(pool.Size(), ShouldEqual, 3)
				So(pool.Remaining(), ShouldEqual, 2)
			})
		})

		Convey("When names are drawn", func() {
			_, _ = pool.Next()

			Convey("Then Remaining drops", func() {
				So(pool.Remaining(), ShouldEqual, 2)
			})
		})

		Convey("When blank names are marked used", func() {
			pool.MarkUsed("")

			Convey("Then nothing changes", func() {
				So(pool.Remaining(), ShouldEqual, 3)
			})
		})
	})
}

func TestAlias(t *testing.T) {
	Convey("Given pseudonyms", t, func() {
		Convey("Then the alias joins the cleaned first name and the last initial", func() {
			So(namepool.Alias(pseudo("Maja", "Lind")), ShouldEqual, "MajaL")
			So(namepool.Alias(pseudo("Jean-Luc", "O'Neil")), ShouldEqual, "JeanLucO")
			So(namepool.Alias(pseudo("Tomás", "Ruiz")), ShouldEqual, "TomásR")
		})

		Convey("Then a last name without alphanumerics leaves the first name alone", func() {
			So(namepool.Alias(pseudo("Cher", "--")), ShouldEqual, "Cher")
		})

		Convey("Then the principal name appends the domain", func() {
			So(namepool.PrincipalName("MajaL", "fabrikam1.csplevelup.com"), ShouldEqual, "MajaL@fabrikam1.csplevelup.com")
		})
	})
}
