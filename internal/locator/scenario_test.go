package locator

import (
	"context"
	"testing"

	"gopkg.in/check.v1"

	"github.com/rakshak-ai/internal/cache"
	"github.com/rakshak-ai/internal/db"
	"github.com/rakshak-ai/internal/directory/directorytest"
	"github.com/rakshak-ai/internal/geocode"
	"github.com/rakshak-ai/internal/normalize"
	"github.com/rakshak-ai/internal/resolver"
)

func TestScenarios(t *testing.T) { check.TestingT(t) }

// ScenarioSuite drives the full chain over a SQLite directory with no
// geocoding key and no text generator configured.
type ScenarioSuite struct {
	conn     *db.Connection
	selector *Selector
}

var _ = check.Suite(&ScenarioSuite{})

func (s *ScenarioSuite) SetUpSuite(c *check.C) {
	store, conn, err := directorytest.Memory(context.Background(), directorytest.Stations, directorytest.Villages)
	c.Assert(err, check.IsNil)
	s.conn = conn

	r := resolver.New(store)
	names := cache.NewStationNames(store)
	s.selector = New(r, normalize.New(nil, names), geocode.New(nil, r))
}

func (s *ScenarioSuite) TearDownSuite(c *check.C) {
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *ScenarioSuite) TestMissingLetterResolvesFuzzy(c *check.C) {
	p := s.selector.SelectLocation(context.Background(), "kurangaonvadi", "english")

	c.Assert(p.Resolved(), check.Equals, true)
	station := p.Data.NearestPoliceStation
	c.Check(station.ID, check.Equals, "pi-dindori")
	c.Check(station.StationName, check.Equals, "Dindori Police Station")
	c.Check(station.OfficersMobNumber, check.Equals, "9000000003")
	c.Check(station.Source, check.Equals, geocode.SourceDatabase)
	c.Check(station.Available, check.Equals, true)
	c.Check(p.Data.Location.Coordinates, check.DeepEquals, Coordinates{Lat: 20.2029, Long: 73.8327})
}

func (s *ScenarioSuite) TestZeroReturnsLanguageDirective(c *check.C) {
	for _, in := range []string{"0", "०"} {
		p := s.selector.SelectLocation(context.Background(), in, "marathi")
		c.Check(p.Resolved(), check.Equals, false)
		c.Check(p.NextState, check.Equals, NextStateLanguageSelection)
		c.Check(p.IsTemplate, check.Equals, "interactive")
	}
}

func (s *ScenarioSuite) TestUnresolvableWithoutGeocodingKey(c *check.C) {
	for _, lang := range []string{LanguageEnglish, LanguageMarathi, LanguageHindi} {
		p := s.selector.SelectLocation(context.Background(), "Mumbai", lang)
		c.Check(p.Resolved(), check.Equals, false)
		c.Check(p.NextState, check.Equals, NextStateLocation)
		c.Check(p.Message, check.Equals, JurisdictionError(lang))
	}
}

func (s *ScenarioSuite) TestExactVillageAnyCase(c *check.C) {
	p := s.selector.SelectLocation(context.Background(), "MOHADI", "english")

	c.Assert(p.Resolved(), check.Equals, true)
	c.Check(p.Data.NearestPoliceStation.ID, check.Equals, "pi-dindori")
}

func (s *ScenarioSuite) TestToolAnswer(c *check.C) {
	ans := s.selector.PoliceStation(context.Background(), "Karanjvaan")

	c.Assert(ans.Found, check.Equals, true)
	c.Check(ans.Village, check.Equals, "Karanjvan")
	c.Check(ans.Station.StationName, check.Equals, "Vani Police Station")
}
