package redshift

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/config"
	"github.com/ajitpratap0/tap-redshift/pkg/message"
	"github.com/ajitpratap0/tap-redshift/pkg/state"
	"github.com/ajitpratap0/tap-redshift/pkg/testutil"
)

type RedshiftIntegrationSuite struct {
	testutil.IntegrationTestSuite
	cfg    *config.Config
	conn   *Connection
	schema string
}

func TestRedshiftIntegration(t *testing.T) {
	suite.Run(t, new(RedshiftIntegrationSuite))
}

func (s *RedshiftIntegrationSuite) SetupSuite() {
	s.IntegrationTestSuite.SetupSuite()

	pc, err := pgx.ParseConfig(s.DSN())
	s.Require().NoError(err)

	s.schema = fmt.Sprintf("tap_test_%d", time.Now().UnixNano())
	s.cfg = &config.Config{
		Host:           pc.Host,
		Port:           int(pc.Port),
		DBName:         pc.Database,
		User:           pc.User,
		Password:       pc.Password,
		Schema:         s.schema,
		SSLMode:        "prefer",
		ConnectRetries: 2,
	}
	s.Require().NoError(s.cfg.Validate())

	s.conn, err = Open(s.Context(), s.cfg, testutil.TestLogger(s.T()))
	s.Require().NoError(err)

	for _, stmt := range []string{
		fmt.Sprintf(`CREATE SCHEMA %q`, s.schema),
		fmt.Sprintf(`CREATE TABLE %q.orders (id int4 NOT NULL PRIMARY KEY, total numeric(12,2), updated_at timestamp)`, s.schema),
		fmt.Sprintf(`INSERT INTO %q.orders VALUES (1, 10.50, '2024-01-01 00:00:00'), (2, 0.10, '2024-01-02 00:00:00')`, s.schema),
	} {
		rows, err := s.conn.Query(s.Context(), stmt)
		s.Require().NoError(err)
		rows.Close()
		s.Require().NoError(rows.Err())
	}
}

func (s *RedshiftIntegrationSuite) TearDownSuite() {
	if s.conn != nil {
		if rows, err := s.conn.Query(s.Context(), fmt.Sprintf(`DROP SCHEMA %q CASCADE`, s.schema)); err == nil {
			rows.Close()
		}
		_ = s.conn.Close(s.Context())
	}
	s.IntegrationTestSuite.TearDownSuite()
}

func (s *RedshiftIntegrationSuite) TestDiscoverAndSync() {
	sink := &message.Collector{}
	tap := NewTap(s.conn, s.cfg, sink, testutil.TestLogger(s.T()))

	cat, err := tap.Discover(s.Context())
	s.Require().NoError(err)
	s.Require().Len(cat.Streams, 1)

	entry := cat.Streams[0]
	s.Equal([]string{"id"}, entry.KeyProperties)
	s.Equal([]string{"id", "total", "updated_at"}, entry.Schema.Properties.Names())

	entry.Metadata.Write(catalog.StreamBreadcrumb(), catalog.MetaSelected, true)
	entry.Metadata.Write(catalog.StreamBreadcrumb(), catalog.MetaReplicationMethod, catalog.ReplicationIncremental)
	entry.Metadata.Write(catalog.StreamBreadcrumb(), catalog.MetaReplicationKey, "updated_at")

	s.Require().NoError(tap.Sync(s.Context(), cat, state.New()))

	var records []map[string]interface{}
	for _, m := range sink.Messages {
		if r, ok := m.(message.RecordMessage); ok {
			records = append(records, r.Record)
		}
	}
	s.Require().Len(records, 2)
	s.EqualValues(1, records[0]["id"])
	s.Equal("10.5", fmt.Sprint(records[0]["total"]))
	s.Equal("2024-01-02T00:00:00Z", records[1]["updated_at"])
}
