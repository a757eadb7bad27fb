package listing

import "github.com/angelmondragon/tms-backend/pkg/enums"

// Jobs lists transport jobs.
var Jobs = Spec{
	Table: "jobs",
	Fields: map[string]Field{
		"title":       TextField("title"),
		"description": TextField("description"),
		"location":    TextField("location"),
		"client.name": RelatedField("clients", "client_id", "last_name"),
		"shaft.name":  RelatedField("shafts", "shaft_id", "name"),
	},
	DefaultSearchFields: []string{"title", "description", "location"},
	Filters: map[string]Filter{
		"status":           EnumEq("status", enums.ParseJobStatus),
		"priority":         EnumEq("priority", enums.ParseJobPriority),
		"jobType":          EnumEq("job_type", enums.ParseJobType),
		"assignedDriverId": UUIDEq("assigned_driver_id"),
		"requesterId":      UUIDEq("requester_id"),
		"shaftId":          UUIDEq("shaft_id"),
		"clientId":         UUIDEq("client_id"),
	},
	FilterOrder: []string{"status", "priority", "assignedDriverId", "requesterId", "shaftId", "clientId", "jobType"},
}

// Clients lists customers. email is matched element-wise.
var Clients = Spec{
	Table: "clients",
	Fields: map[string]Field{
		"firstName":     TextField("first_name"),
		"lastName":      TextField("last_name"),
		"idNumber":      TextField("id_number"),
		"address":       TextField("address"),
		"email":         ArrayField("emails"),
		"contactNumber": ArrayField("contact_numbers"),
		"whatsapp":      ArrayField("whatsapp"),
	},
	DefaultSearchFields: []string{"firstName", "lastName", "idNumber", "email"},
	Filters: map[string]Filter{
		"status":      EnumEq("status", enums.ParseClientStatus),
		"createdById": UUIDEq("created_by_id"),
	},
	FilterOrder: []string{"status", "createdById"},
}

var Equipment = Spec{
	Table: "equipment",
	Fields: map[string]Field{
		"registrationNumber": TextField("registration_number"),
		"make":               TextField("make"),
		"model":              TextField("model"),
		"description":        TextField("description"),
		"type.name":          RelatedField("equipment_types", "type_id", "name"),
	},
	DefaultSearchFields: []string{"registrationNumber", "type.name"},
	Filters: map[string]Filter{
		"status":   EnumEq("status", enums.ParseEquipmentStatus),
		"typeId":   UUIDEq("type_id"),
		"category": EnumEq("category", enums.ParseEquipmentCategory),
	},
	FilterOrder: []string{"status", "typeId", "category"},
}

var EquipmentTypes = Spec{
	Table: "equipment_types",
	Fields: map[string]Field{
		"name":        TextField("name"),
		"description": TextField("description"),
	},
	DefaultSearchFields: []string{"name"},
}

var Shafts = Spec{
	Table: "shafts",
	Fields: map[string]Field{
		"name":      TextField("name"),
		"area.name": RelatedField("areas", "area_id", "name"),
	},
	DefaultSearchFields: []string{"name"},
	Filters: map[string]Filter{
		"areaId":   UUIDEq("area_id"),
		"clientId": UUIDEq("client_id"),
	},
	FilterOrder: []string{"areaId", "clientId"},
}

var Sites = Spec{
	Table: "sites",
	Fields: map[string]Field{
		"name":    TextField("name"),
		"address": TextField("address"),
	},
	DefaultSearchFields: []string{"name", "address"},
}

var Areas = Spec{
	Table: "areas",
	Fields: map[string]Field{
		"name":      TextField("name"),
		"site.name": RelatedField("sites", "site_id", "name"),
	},
	DefaultSearchFields: []string{"name"},
	Filters: map[string]Filter{
		"siteId": UUIDEq("site_id"),
	},
}

var Syndicates = Spec{
	Table: "syndicates",
	Fields: map[string]Field{
		"name": TextField("name"),
	},
	DefaultSearchFields: []string{"name"},
}

var Procedures = Spec{
	Table: "procedures",
	Fields: map[string]Field{
		"name":        TextField("name"),
		"description": TextField("description"),
	},
	DefaultSearchFields: []string{"name", "description"},
	Filters: map[string]Filter{
		"type": EnumEq("type", enums.ParseProcedureType),
	},
}

// Executions have no free-text fields; newest runs come first.
var Executions = Spec{
	Table: "executions",
	Fields: map[string]Field{
		"procedure.name": RelatedField("procedures", "procedure_id", "name"),
	},
	Filters: map[string]Filter{
		"status":      EnumEq("status", enums.ParseExecutionStatus),
		"userId":      UUIDEq("user_id"),
		"procedureId": UUIDEq("procedure_id"),
	},
	FilterOrder: []string{"status", "userId", "procedureId"},
	Order:       "executions.start_time DESC",
}

var Exceptions = Spec{
	Table: "exceptions",
	Fields: map[string]Field{
		"description": TextField("description"),
		"actionTaken": TextField("action_taken"),
	},
	DefaultSearchFields: []string{"description", "actionTaken"},
	Filters: map[string]Filter{
		"executionId": UUIDEq("execution_id"),
	},
}

// Plans order by plan date, newest first.
var Plans = Spec{
	Table: "daily_plans",
	Filters: map[string]Filter{
		"status":      EnumEq("status", enums.ParsePlanStatus),
		"createdById": UUIDEq("created_by_id"),
	},
	FilterOrder: []string{"status", "createdById"},
	Order:       "daily_plans.date DESC",
}

var Users = Spec{
	Table: "users",
	Fields: map[string]Field{
		"firstName": TextField("first_name"),
		"lastName":  TextField("last_name"),
		"email":     TextField("email"),
	},
	DefaultSearchFields: []string{"firstName", "lastName", "email"},
	Filters: map[string]Filter{
		"role": EnumEq("role", enums.ParseRole),
	},
}
