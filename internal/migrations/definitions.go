package migrations

import (
	"gorm.io/gorm"
)

// getAllMigrations returns all migration definitions in chronological order
func getAllMigrations() []MigrationDefinition {
	return []MigrationDefinition{
		{
			ID:          "20250301000001",
			Description: "Create clusters table",
			Up:          createClustersTable,
			Down:        dropClustersTable,
		},
		{
			ID:          "20250301000002",
			Description: "Create nodes table",
			Up:          createNodesTable,
			Down:        dropNodesTable,
		},
		{
			ID:          "20250301000003",
			Description: "Create tasks table",
			Up:          createTasksTable,
			Down:        dropTasksTable,
		},
	}
}

// createClustersTable creates the clusters table
func createClustersTable(db *gorm.DB) error {
	sql := `
	CREATE TABLE IF NOT EXISTS clusters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT DEFAULT 'inactive' NOT NULL,
		vdc TEXT,
		network TEXT,
		node_count INTEGER DEFAULT 0,
		leader_endpoint TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		deleted_at DATETIME
	);

	-- unique among non-deleted clusters only; tombstoned rows free the name
	CREATE UNIQUE INDEX IF NOT EXISTS idx_clusters_name ON clusters(name) WHERE deleted_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_clusters_deleted_at ON clusters(deleted_at);
	CREATE INDEX IF NOT EXISTS idx_clusters_status ON clusters(status);
	`

	return db.Exec(sql).Error
}

// dropClustersTable drops the clusters table
func dropClustersTable(db *gorm.DB) error {
	sql := `
	DROP INDEX IF EXISTS idx_clusters_status;
	DROP INDEX IF EXISTS idx_clusters_deleted_at;
	DROP INDEX IF EXISTS idx_clusters_name;
	DROP TABLE IF EXISTS clusters;
	`

	return db.Exec(sql).Error
}

// createNodesTable creates the nodes table
func createNodesTable(db *gorm.DB) error {
	sql := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT DEFAULT 'worker' NOT NULL,
		href TEXT,
		ip_address TEXT,
		cluster_id TEXT NOT NULL,
		cluster_name TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (cluster_id) REFERENCES clusters(id)
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_cluster_id ON nodes(cluster_id);
	CREATE INDEX IF NOT EXISTS idx_nodes_role ON nodes(role);
	`

	return db.Exec(sql).Error
}

// dropNodesTable drops the nodes table
func dropNodesTable(db *gorm.DB) error {
	sql := `
	DROP INDEX IF EXISTS idx_nodes_role;
	DROP INDEX IF EXISTS idx_nodes_cluster_id;
	DROP TABLE IF EXISTS nodes;
	`

	return db.Exec(sql).Error
}

// createTasksTable creates the tasks table
func createTasksTable(db *gorm.DB) error {
	sql := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		status TEXT DEFAULT 'running' NOT NULL,
		message TEXT,
		cluster_id TEXT NOT NULL,
		cluster_name TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_cluster_id ON tasks(cluster_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_cluster_name ON tasks(cluster_name);
	`

	return db.Exec(sql).Error
}

// dropTasksTable drops the tasks table
func dropTasksTable(db *gorm.DB) error {
	sql := `
	DROP INDEX IF EXISTS idx_tasks_cluster_name;
	DROP INDEX IF EXISTS idx_tasks_cluster_id;
	DROP INDEX IF EXISTS idx_tasks_status;
	DROP TABLE IF EXISTS tasks;
	`

	return db.Exec(sql).Error
}
