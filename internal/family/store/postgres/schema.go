package postgres

// Schema creates the read-model relations the store queries, the
// member-overview materialized view, and the row-change triggers that feed
// LISTEN/NOTIFY. Integration tests and single-node dev apply it directly;
// production environments own their migrations.
//
// The trigger payload must stay in sync with the changefeed wire codec, and
// the channel prefix with the postgres changefeed backend.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id uuid PRIMARY KEY,
	display_name text NOT NULL,
	email text NOT NULL DEFAULT '',
	avatar_url text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS families (
	id uuid PRIMARY KEY,
	name text NOT NULL,
	description text NOT NULL DEFAULT '',
	visibility text NOT NULL DEFAULT 'private',
	owner_id uuid NOT NULL,
	currency_pref text NOT NULL DEFAULT 'PHP',
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS family_members (
	id uuid PRIMARY KEY,
	family_id uuid NOT NULL REFERENCES families (id) ON DELETE CASCADE,
	user_id uuid NOT NULL,
	role text NOT NULL DEFAULT 'member',
	status text NOT NULL DEFAULT 'active',
	joined_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS family_members_user_idx ON family_members (user_id);
CREATE INDEX IF NOT EXISTS family_members_active_idx ON family_members (family_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS goals (
	id uuid PRIMARY KEY,
	family_id uuid REFERENCES families (id) ON DELETE SET NULL,
	name text NOT NULL,
	target_amount numeric(14,2) NOT NULL DEFAULT 0,
	current_amount numeric(14,2) NOT NULL DEFAULT 0,
	deadline timestamptz,
	status text NOT NULL DEFAULT 'not_started',
	priority text NOT NULL DEFAULT 'medium',
	created_by uuid NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS goals_family_idx ON goals (family_id, created_at DESC);

CREATE TABLE IF NOT EXISTS goal_contributions (
	id uuid PRIMARY KEY,
	goal_id uuid NOT NULL REFERENCES goals (id) ON DELETE CASCADE,
	user_id uuid NOT NULL,
	amount numeric(14,2) NOT NULL,
	note text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS goal_contributions_goal_idx ON goal_contributions (goal_id);

CREATE TABLE IF NOT EXISTS transactions (
	id uuid PRIMARY KEY,
	family_id uuid REFERENCES families (id) ON DELETE SET NULL,
	user_id uuid NOT NULL,
	goal_id uuid REFERENCES goals (id) ON DELETE SET NULL,
	amount numeric(14,2) NOT NULL,
	type text NOT NULL,
	notes text NOT NULL DEFAULT '',
	date timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS transactions_family_idx ON transactions (family_id, date DESC);

CREATE MATERIALIZED VIEW IF NOT EXISTS family_members_overview AS
	SELECT DISTINCT ON (user_id) id, family_id, user_id, role, status, joined_at
	FROM family_members
	WHERE status = 'active'
	ORDER BY user_id, joined_at DESC;
CREATE UNIQUE INDEX IF NOT EXISTS family_members_overview_user_idx ON family_members_overview (user_id);

CREATE OR REPLACE FUNCTION budgetme_notify_change() RETURNS trigger AS $fn$
DECLARE
	rec record;
	fam uuid;
	usr uuid;
BEGIN
	IF TG_OP = 'DELETE' THEN rec := OLD; ELSE rec := NEW; END IF;

	CASE TG_TABLE_NAME
	WHEN 'families' THEN
		fam := rec.id;
	WHEN 'family_members' THEN
		fam := rec.family_id; usr := rec.user_id;
	WHEN 'goals' THEN
		fam := rec.family_id; usr := rec.created_by;
	WHEN 'goal_contributions' THEN
		SELECT g.family_id INTO fam FROM goals g WHERE g.id = rec.goal_id;
		usr := rec.user_id;
	WHEN 'transactions' THEN
		fam := rec.family_id; usr := rec.user_id;
	END CASE;

	PERFORM pg_notify(
		'budgetme_' || TG_TABLE_NAME,
		jsonb_strip_nulls(jsonb_build_object(
			'table', TG_TABLE_NAME,
			'op', lower(TG_OP),
			'family_id', fam,
			'user_id', usr,
			'record_id', rec.id,
			'at', now()
		))::text
	);
	RETURN NULL;
END;
$fn$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS families_notify ON families;
CREATE TRIGGER families_notify AFTER INSERT OR UPDATE OR DELETE ON families
	FOR EACH ROW EXECUTE FUNCTION budgetme_notify_change();

DROP TRIGGER IF EXISTS family_members_notify ON family_members;
CREATE TRIGGER family_members_notify AFTER INSERT OR UPDATE OR DELETE ON family_members
	FOR EACH ROW EXECUTE FUNCTION budgetme_notify_change();

DROP TRIGGER IF EXISTS goals_notify ON goals;
CREATE TRIGGER goals_notify AFTER INSERT OR UPDATE OR DELETE ON goals
	FOR EACH ROW EXECUTE FUNCTION budgetme_notify_change();

DROP TRIGGER IF EXISTS goal_contributions_notify ON goal_contributions;
CREATE TRIGGER goal_contributions_notify AFTER INSERT OR UPDATE OR DELETE ON goal_contributions
	FOR EACH ROW EXECUTE FUNCTION budgetme_notify_change();

DROP TRIGGER IF EXISTS transactions_notify ON transactions;
CREATE TRIGGER transactions_notify AFTER INSERT OR UPDATE OR DELETE ON transactions
	FOR EACH ROW EXECUTE FUNCTION budgetme_notify_change();
`
