package database

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "timezone", Type: field.TypeString, Size: 64, Default: "Asia/Kolkata"},
		{Name: "work_start", Type: field.TypeString, Size: 5, Default: "09:00"},
		{Name: "work_end", Type: field.TypeString, Size: 5, Default: "18:00"},
		{Name: "sleep_start", Type: field.TypeString, Size: 5, Default: "23:00"},
		{Name: "sleep_end", Type: field.TypeString, Size: 5, Default: "07:00"},
		{Name: "category_durations", Type: field.TypeJSON, Nullable: true},
		{Name: "total_tasks_completed", Type: field.TypeInt, Default: 0},
		{Name: "pending_task", Type: field.TypeJSON, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// UsersTable holds the schema information for the "users" table.
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
	}

	// TasksColumns holds the columns for the "tasks" table.
	TasksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "title", Type: field.TypeString, Size: 200},
		{Name: "description", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "category", Type: field.TypeEnum, Enums: []string{"work", "personal", "health", "learning"}, Default: "work"},
		{Name: "priority", Type: field.TypeInt, Default: 2},
		{Name: "date", Type: field.TypeTime, Nullable: true},
		{Name: "start_time", Type: field.TypeTime, Nullable: true},
		{Name: "end_time", Type: field.TypeTime, Nullable: true},
		{Name: "duration", Type: field.TypeInt},
		{Name: "due_date", Type: field.TypeTime, Nullable: true},
		{Name: "is_fixed", Type: field.TypeBool, Default: false},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"pending", "scheduled", "completed", "skipped"}, Default: "pending"},
		{Name: "created_by", Type: field.TypeEnum, Enums: []string{"manual", "ai"}, Default: "manual"},
		{Name: "original_command", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "reschedule_count", Type: field.TypeInt, Default: 0},
		{Name: "actual_duration", Type: field.TypeInt, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "owner_id", Type: field.TypeUUID},
	}
	// TasksTable holds the schema information for the "tasks" table.
	TasksTable = &schema.Table{
		Name:       "tasks",
		Columns:    TasksColumns,
		PrimaryKey: []*schema.Column{TasksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "tasks_users_tasks",
				Columns:    []*schema.Column{TasksColumns[18]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "task_owner_id_start_time",
				Unique:  false,
				Columns: []*schema.Column{TasksColumns[18], TasksColumns[6]},
			},
			{
				Name:    "task_owner_id_status",
				Unique:  false,
				Columns: []*schema.Column{TasksColumns[18], TasksColumns[11]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		UsersTable,
		TasksTable,
	}
)

func init() {
	TasksTable.ForeignKeys[0].RefTable = UsersTable
}
