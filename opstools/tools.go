// Package opstools registers the Mission Control operational tools: team
// roster, projects, incidents, budgets, customer feedback, and deployments.
// Every tool is callable both directly by the model and from code execution.
package opstools

import (
	"context"
	"encoding/json"

	"github.com/structuredai/missionctl/chatloop"
	"github.com/structuredai/missionctl/llm"
	"github.com/structuredai/missionctl/opsdata"
)

var departmentEnum = []string{"engineering", "product", "design", "data", "infrastructure"}

func departmentProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        departmentEnum,
	}
}

func descriptor(name, description string, properties map[string]interface{}) llm.ToolDescriptor {
	return llm.ToolDescriptor{
		Name:        name,
		Description: description,
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   []string{},
		},
		AllowedCallers: []string{llm.CodeExecutionCaller},
	}
}

// RegisterAll registers all operational tools on the given registry.
func RegisterAll(registry *chatloop.Registry) {
	registry.Register(descriptor(
		"get_team_members",
		"Get team members from Structured AI, optionally filtered by department. Returns employee records with id, name, email, department, role, level, and manager_id.",
		map[string]interface{}{
			"department": departmentProperty("Filter by department: engineering, product, design, data, or infrastructure"),
		},
	), getTeamMembers)

	registry.Register(descriptor(
		"get_projects",
		"Get projects from Structured AI, optionally filtered by team. Returns project records with id, name, team_id, lead_id, status, and started_at.",
		map[string]interface{}{
			"team_id": departmentProperty("Filter by team/department: engineering, product, design, data, or infrastructure"),
		},
	), getProjects)

	registry.Register(descriptor(
		"get_incidents",
		"Get incident reports from Structured AI, optionally filtered by status and/or severity. Returns incident records with id, title, severity, status, project_id, assigned_to, created_at, resolved_at, and service.",
		map[string]interface{}{
			"status": map[string]interface{}{
				"type":        "string",
				"description": "Filter by status",
				"enum":        []string{"open", "investigating", "resolved"},
			},
			"severity": map[string]interface{}{
				"type":        "string",
				"description": "Filter by severity level",
				"enum":        []string{"P0", "P1", "P2", "P3"},
			},
		},
	), getIncidents)

	registry.Register(descriptor(
		"get_budgets",
		"Get annual budget data (in thousands of dollars) from Structured AI, optionally filtered by department. Returns allocated, spent, and per-quarter spend figures.",
		map[string]interface{}{
			"department": departmentProperty("Filter by department: engineering, product, design, data, or infrastructure"),
		},
	), getBudgets)

	registry.Register(descriptor(
		"get_customer_feedback",
		"Get customer satisfaction data from Structured AI, optionally filtered by project. Returns NPS score, response count, trend, and recent comments per project.",
		map[string]interface{}{
			"project_id": map[string]interface{}{
				"type":        "string",
				"description": "Filter by project id, e.g. proj_001",
			},
		},
	), getCustomerFeedback)

	registry.Register(descriptor(
		"get_deployments",
		"Get deployment history from Structured AI, optionally filtered by project and/or status. Returns deployment records with id, project_id, version, deployed_by, deployed_at, status, rollback, and environment.",
		map[string]interface{}{
			"project_id": map[string]interface{}{
				"type":        "string",
				"description": "Filter by project id, e.g. proj_001",
			},
			"status": map[string]interface{}{
				"type":        "string",
				"description": "Filter by deployment status",
				"enum":        []string{"success", "failed"},
			},
		},
	), getDeployments)
}

func getTeamMembers(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := chatloop.ParseArguments(raw)
	if err != nil {
		return nil, err
	}
	department, _ := chatloop.StringArg(args, "department")
	return opsdata.TeamMembers(department), nil
}

func getProjects(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := chatloop.ParseArguments(raw)
	if err != nil {
		return nil, err
	}
	teamID, _ := chatloop.StringArg(args, "team_id")
	return opsdata.Projects(teamID), nil
}

func getIncidents(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := chatloop.ParseArguments(raw)
	if err != nil {
		return nil, err
	}
	status, _ := chatloop.StringArg(args, "status")
	severity, _ := chatloop.StringArg(args, "severity")
	return opsdata.Incidents(status, severity), nil
}

func getBudgets(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := chatloop.ParseArguments(raw)
	if err != nil {
		return nil, err
	}
	department, _ := chatloop.StringArg(args, "department")
	return opsdata.Budgets(department), nil
}

func getCustomerFeedback(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := chatloop.ParseArguments(raw)
	if err != nil {
		return nil, err
	}
	projectID, _ := chatloop.StringArg(args, "project_id")
	return opsdata.CustomerFeedback(projectID), nil
}

func getDeployments(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := chatloop.ParseArguments(raw)
	if err != nil {
		return nil, err
	}
	projectID, _ := chatloop.StringArg(args, "project_id")
	status, _ := chatloop.StringArg(args, "status")
	return opsdata.Deployments(projectID, status), nil
}
