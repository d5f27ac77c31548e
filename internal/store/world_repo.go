package store

import "context"

// WorldRow is one row of the World data model (spec §3).
type WorldRow struct {
	WorldID      uint32
	DisplayName  string
	MQServer     string
	MQPort       int
	MQUsername   string
	MQPassword   string
	MQVHost      string
	MQExchange   string
	MQRouteKey   string
	MQSSL        bool
	MQSSLVerify  bool
	MQSSLCAFile     string
	MQSSLClientCert string
	MQSSLClientKey  string
	IsTest       bool
	Active       bool
}

type WorldRepo struct {
	db *DB
}

func NewWorldRepo(db *DB) *WorldRepo {
	return &WorldRepo{db: db}
}

// ListActive returns every active world row, used once at registry init
// (spec §4.3).
func (r *WorldRepo) ListActive(ctx context.Context) ([]WorldRow, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT world_id, display_name, mq_server, mq_port, mq_username, mq_password,
		       mq_vhost, mq_exchange, mq_route_key, mq_ssl, mq_ssl_verify,
		       COALESCE(mq_ssl_ca_file, ''), COALESCE(mq_ssl_client_cert, ''), COALESCE(mq_ssl_client_key, ''),
		       is_test, active
		FROM worlds WHERE active = TRUE`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorldRow
	for rows.Next() {
		var w WorldRow
		if err := rows.Scan(
			&w.WorldID, &w.DisplayName, &w.MQServer, &w.MQPort, &w.MQUsername, &w.MQPassword,
			&w.MQVHost, &w.MQExchange, &w.MQRouteKey, &w.MQSSL, &w.MQSSLVerify,
			&w.MQSSLCAFile, &w.MQSSLClientCert, &w.MQSSLClientKey,
			&w.IsTest, &w.Active,
		); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
