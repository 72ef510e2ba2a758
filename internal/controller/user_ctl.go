package controller

import (
	"github.com/gin-gonic/gin"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/service"
)

// ==================== UserController 用户管理 ====================

// UserController 系统用户管理（管理员）
type UserController struct {
	userService *service.UserService
}

// NewUserController 创建用户控制器
func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

// List 用户列表
// @Summary 用户列表
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param keyword query string false "用户名或邮箱"
// @Param role_id query int false "角色ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.UserListResponse
// @Router /admin/users [get]
func (c *UserController) List(ctx *gin.Context) {
	var req dto.UserListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.userService.ListUsers(ctx.Request.Context(), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", resp)
}

// Get 用户详情
// @Summary 用户详情
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} dto.UserInfo
// @Failure 404 {object} map[string]interface{}
// @Router /admin/users/{id} [get]
func (c *UserController) Get(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", user)
}

// Create 创建用户
// @Summary 创建用户
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "用户信息"
// @Success 200 {object} dto.UserInfo
// @Failure 400 {object} map[string]interface{}
// @Router /admin/users [post]
func (c *UserController) Create(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	user, err := c.userService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "创建成功", user)
}

// Update 更新用户
// @Summary 更新用户
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param request body dto.UpdateUserRequest true "更新内容，空值不修改"
// @Success 200 {object} dto.UserInfo
// @Router /admin/users/{id} [put]
func (c *UserController) Update(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	user, err := c.userService.UpdateUser(ctx.Request.Context(), id, &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "更新成功", user)
}

// Delete 删除用户
// @Summary 删除用户
// @Description 不能删除自己，也不能删除仍有订单的用户
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /admin/users/{id} [delete]
func (c *UserController) Delete(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.DeleteUser(ctx.Request.Context(), viewerOf(ctx), id); err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "删除成功", nil)
}

// Roles 角色列表
// @Summary 角色列表
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.RoleInfo
// @Router /admin/roles [get]
func (c *UserController) Roles(ctx *gin.Context) {
	roles, err := c.userService.ListRoles(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", roles)
}

// Submitters 提交人下拉选项
// @Summary 提交人列表
// @Description 订单筛选用，需要查看全部订单权限
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UserInfo
// @Router /users [get]
func (c *UserController) Submitters(ctx *gin.Context) {
	users, err := c.userService.ListSubmitters(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", users)
}
