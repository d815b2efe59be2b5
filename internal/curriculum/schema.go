package curriculum

// topicSchema validates a topic document after YAML decoding. Files that
// fail validation are skipped by the loader rather than aborting the load.
const topicSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name", "section"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "section": {
      "type": "string",
      "enum": ["numeracy", "algebra", "geometry", "statistics"]
    },
    "prerequisites": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "description": {"type": "string"}
  }
}`
