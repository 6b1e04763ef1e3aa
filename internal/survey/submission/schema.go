package submission

import "rumble-survey/internal/common/validation"

const submissionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["submissionId", "userId", "demographics", "responses", "deviceType", "validationCode"],
  "properties": {
    "submissionId": {"type": "string", "minLength": 1},
    "userId": {"type": "string"},
    "demographics": {
      "type": "object",
      "required": ["location", "ageRange", "frequency"],
      "properties": {
        "location": {"enum": ["Montclair", "Livingston", "Short Hills"]},
        "ageRange": {"enum": ["18-25", "26-35", "36-45", "46-55", "55+"]},
        "frequency": {"enum": ["Never", "1-2x Month", "1-2x Week", "3+ Week"]}
      }
    },
    "responses": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["questionId", "orderIndex", "choice", "set", "timestamp"],
        "properties": {
          "questionId": {"type": "integer", "minimum": 1},
          "orderIndex": {"type": "integer", "minimum": 1},
          "choice": {"enum": ["A", "B", "None"]},
          "set": {
            "type": "object",
            "required": ["id", "optionA", "optionB"]
          },
          "timestamp": {"type": "string", "format": "date-time"}
        }
      }
    },
    "deviceType": {"enum": ["Mobile", "Desktop"]},
    "validationCode": {"type": "string", "pattern": "^[0-9A-Z]{6}$"}
  }
}`

var payloadValidator = validation.MustCompile(submissionSchema)
